// atoms.go contains pure validation and encoding helpers with no external
// dependencies.
package oracle

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	// ErrEmptyImage indicates a zero-length image payload.
	ErrEmptyImage = errors.New("oracle: empty image payload")

	// ErrImageTooLarge indicates the image exceeds the configured maximum.
	ErrImageTooLarge = errors.New("oracle: image exceeds maximum size")

	// ErrUnsupportedFormat indicates a MIME type the oracle cannot accept.
	ErrUnsupportedFormat = errors.New("oracle: unsupported image format")

	// ErrNoJSONFound indicates the oracle response contained no JSON
	// object.
	ErrNoJSONFound = errors.New("oracle: no JSON object found in response")
)

// supportedMIMETypes lists the image formats the reasoning service accepts.
var supportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImagePayload checks size and format ahead of the expensive
// upload. maxSize of 0 disables the size check.
// This is a pure function with no side effects.
func ValidateImagePayload(img ImagePayload, maxSize int64) error {
	if len(img.Data) == 0 {
		return ErrEmptyImage
	}
	if maxSize > 0 && int64(len(img.Data)) > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), maxSize)
	}
	if !supportedMIMETypes[strings.ToLower(img.MIME)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, img.MIME)
	}
	return nil
}

// EncodeDataURL embeds an image as a base64 data URL, the wire format the
// OpenAI-compatible vision API expects for inline images.
// This is a pure function with no side effects.
func EncodeDataURL(img ImagePayload) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data))
}

// ExtractJSONFromText extracts the first JSON object from model output by
// locating the outermost braces. Reasoning models sometimes wrap the JSON
// in prose or markdown fences; the schema parse afterwards decides whether
// the extracted text is actually valid.
// This is a pure function with no side effects.
func ExtractJSONFromText(text string) (string, error) {
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")

	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		return "", ErrNoJSONFound
	}

	return text[startIdx : endIdx+1], nil
}

// MaskAPIKey returns a masked key for safe logging: first 6 and last 4
// characters with the middle elided.
// This is a pure function with no side effects.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "[empty]"
	}
	if len(apiKey) <= 10 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:6] + "****" + apiKey[len(apiKey)-4:]
}
