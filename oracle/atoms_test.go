package oracle

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateImagePayload(t *testing.T) {
	tests := []struct {
		name    string
		img     ImagePayload
		maxSize int64
		errType error
	}{
		{
			name:    "valid jpeg",
			img:     ImagePayload{Data: []byte("fake-bytes"), MIME: "image/jpeg"},
			maxSize: 100,
		},
		{
			name:    "valid png with uppercase mime",
			img:     ImagePayload{Data: []byte("fake-bytes"), MIME: "IMAGE/PNG"},
			maxSize: 100,
		},
		{
			name:    "empty payload",
			img:     ImagePayload{Data: nil, MIME: "image/png"},
			maxSize: 100,
			errType: ErrEmptyImage,
		},
		{
			name:    "oversized payload",
			img:     ImagePayload{Data: make([]byte, 101), MIME: "image/png"},
			maxSize: 100,
			errType: ErrImageTooLarge,
		},
		{
			name:    "size check disabled",
			img:     ImagePayload{Data: make([]byte, 101), MIME: "image/png"},
			maxSize: 0,
		},
		{
			name:    "unsupported format",
			img:     ImagePayload{Data: []byte("fake"), MIME: "image/tiff"},
			maxSize: 100,
			errType: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePayload(tt.img, tt.maxSize)
			if tt.errType == nil {
				if err != nil {
					t.Errorf("ValidateImagePayload() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.errType) {
				t.Errorf("ValidateImagePayload() error = %v, want %v", err, tt.errType)
			}
		})
	}
}

func TestEncodeDataURL(t *testing.T) {
	url := EncodeDataURL(ImagePayload{Data: []byte{0x01, 0x02}, MIME: "image/png"})
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("EncodeDataURL() = %q, want data:image/png;base64, prefix", url)
	}
	if !strings.HasSuffix(url, "AQI=") {
		t.Errorf("EncodeDataURL() = %q, want base64 payload AQI=", url)
	}
}

func TestExtractJSONFromText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare json",
			text: `{"status":"pass"}`,
			want: `{"status":"pass"}`,
		},
		{
			name: "json in markdown fence",
			text: "```json\n{\"status\":\"pass\"}\n```",
			want: `{"status":"pass"}`,
		},
		{
			name: "json surrounded by prose",
			text: `Here is the report: {"status":"fail"} as requested.`,
			want: `{"status":"fail"}`,
		},
		{
			name:    "no json at all",
			text:    "I cannot audit this image.",
			wantErr: true,
		},
		{
			name:    "mismatched braces",
			text:    "} {",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONFromText(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSONFound) {
					t.Errorf("ExtractJSONFromText() error = %v, want %v", err, ErrNoJSONFound)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONFromText() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSONFromText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: "[empty]"},
		{name: "short key fully masked", key: "short", want: "*****"},
		{name: "long key elided", key: "sk-abcdefghijklmnop", want: "sk-abc****mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	t.Run("document as image", func(t *testing.T) {
		prompt := BuildUserPrompt(AuditInput{
			GoodsImage:    ImagePayload{Data: []byte("g"), MIME: "image/png"},
			DocumentImage: &ImagePayload{Data: []byte("d"), MIME: "image/png"},
		})
		if !strings.Contains(prompt, "second image is the delivery document") {
			t.Errorf("prompt missing document image reference: %q", prompt)
		}
		if strings.Contains(prompt, "PDF") {
			t.Errorf("prompt mentions PDF without document text: %q", prompt)
		}
	})

	t.Run("document as extracted text", func(t *testing.T) {
		prompt := BuildUserPrompt(AuditInput{
			GoodsImage:   ImagePayload{Data: []byte("g"), MIME: "image/png"},
			DocumentText: "INVOICE 42\nQTY 10",
		})
		if !strings.Contains(prompt, "INVOICE 42") {
			t.Errorf("prompt missing extracted text: %q", prompt)
		}
	})

	t.Run("degraded override carries disclaimer", func(t *testing.T) {
		prompt := BuildUserPrompt(AuditInput{
			GoodsImage: ImagePayload{Data: []byte("g"), MIME: "image/png"},
			Degraded:   true,
		})
		if !strings.Contains(prompt, "sharpness check") {
			t.Errorf("degraded prompt missing disclaimer: %q", prompt)
		}
	})
}
