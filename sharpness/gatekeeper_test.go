package sharpness

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"freightaudit/logging"
)

// fakeDecoder returns a fixed image or error, bypassing the codecs so the
// pipeline can be driven with synthetic pixel grids.
type fakeDecoder struct {
	img image.Image
	err error
}

func (f fakeDecoder) Decode(data []byte) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

// boxBlur applies a mean filter of the given radius to an image, clamping
// at the borders. Radius 0 returns a copy. Used to synthesize defocused
// variants of a sharp reference.
func boxBlur(src image.Image, radius int) *image.RGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sumR, sumG, sumB, n uint32
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sx >= w || sy < 0 || sy >= h {
						continue
					}
					r, g, b, _ := src.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					sumR += r >> 8
					sumG += g >> 8
					sumB += b >> 8
					n++
				}
			}
			dst.Set(x, y, color.RGBA{
				uint8(sumR / n), uint8(sumG / n), uint8(sumB / n), 255,
			})
		}
	}
	return dst
}

// invoicePhoto synthesizes a 3000x4000 "clear printed invoice": black text
// lines and rules on white paper.
func invoicePhoto() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 3000, 4000))
	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}

	for y := 0; y < 4000; y++ {
		for x := 0; x < 3000; x++ {
			img.Set(x, y, white)
		}
	}

	// Text lines: 12px strokes every 40px, inset like a printed page.
	for line := 200; line < 3800; line += 40 {
		for y := line; y < line+12; y++ {
			for x := 200; x < 2800; x++ {
				img.Set(x, y, black)
			}
		}
	}

	// Column rules.
	for x := 1000; x < 1012; x++ {
		for y := 200; y < 3800; y++ {
			img.Set(x, y, black)
		}
	}

	return img
}

func newTestGatekeeper(t *testing.T, dec Decoder) *Gatekeeper {
	t.Helper()
	g, err := NewGatekeeper(DefaultCalibration(), dec, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("NewGatekeeper() unexpected error: %v", err)
	}
	return g
}

func TestEvaluateDecodeFailureFailsOpen(t *testing.T) {
	g := newTestGatekeeper(t, nil)

	verdict := g.Evaluate(context.Background(), []byte("corrupt payload"))

	if verdict.IsBlurry {
		t.Error("decode failure must fail open, got IsBlurry=true")
	}
	if verdict.Score != SentinelScore {
		t.Errorf("Score = %d, want sentinel %d", verdict.Score, SentinelScore)
	}
	if verdict.Reason != ReasonDecodeFailure {
		t.Errorf("Reason = %q, want %q", verdict.Reason, ReasonDecodeFailure)
	}
}

func TestEvaluateDecoderErrorFailsOpen(t *testing.T) {
	g := newTestGatekeeper(t, fakeDecoder{err: errors.New("codec unavailable")})

	verdict := g.Evaluate(context.Background(), []byte("anything"))

	if verdict.IsBlurry || verdict.Score != SentinelScore {
		t.Errorf("verdict = %+v, want fail-open sentinel", verdict)
	}
}

func TestEvaluateSolidColorIsBlurry(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
	}{
		{name: "mid gray", c: color.RGBA{128, 128, 128, 255}},
		{name: "entirely black camera cap", c: color.RGBA{0, 0, 0, 255}},
		{name: "saturated white", c: color.RGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGatekeeper(t, fakeDecoder{img: solidImage(1000, 1000, tt.c)})
			verdict := g.Evaluate(context.Background(), []byte("img"))

			if !verdict.IsBlurry {
				t.Error("solid frame must be declared blurry")
			}
			if verdict.Score != 0 {
				t.Errorf("Score = %d, want 0", verdict.Score)
			}
			if verdict.Reason != ReasonInsufficientEdges {
				t.Errorf("Reason = %q, want %q", verdict.Reason, ReasonInsufficientEdges)
			}
		})
	}
}

func TestEvaluateCheckerboardIsSharp(t *testing.T) {
	// Checkerboard already at the analysis width, so no resampling softens
	// the transitions.
	g := newTestGatekeeper(t, fakeDecoder{img: checkerboard(800, 800, 10)})

	verdict := g.Evaluate(context.Background(), []byte("img"))

	if verdict.IsBlurry {
		t.Errorf("checkerboard declared blurry with score %d", verdict.Score)
	}
	if verdict.Score <= DefaultBlurThreshold {
		t.Errorf("Score = %d, want > %d", verdict.Score, DefaultBlurThreshold)
	}
	if verdict.Reason != ReasonMeasured {
		t.Errorf("Reason = %q, want %q", verdict.Reason, ReasonMeasured)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	data := encodePNG(t, checkerboard(640, 480, 8))
	g := newTestGatekeeper(t, nil)

	first := g.Evaluate(context.Background(), data)
	second := g.Evaluate(context.Background(), data)

	if first != second {
		t.Errorf("identical pixel data produced different verdicts: %+v vs %+v", first, second)
	}
}

func TestEvaluateMonotonicDegradation(t *testing.T) {
	// Increasing blur radius on a fixed sharp reference must never raise
	// the score.
	reference := checkerboard(400, 400, 10)

	var scores []int
	for radius := 0; radius <= 3; radius++ {
		g := newTestGatekeeper(t, fakeDecoder{img: boxBlur(reference, radius)})
		verdict := g.Evaluate(context.Background(), []byte("img"))
		scores = append(scores, verdict.Score)
	}

	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			t.Errorf("score increased under blur: radius %d -> %d gave %d -> %d (all: %v)",
				i-1, i, scores[i-1], scores[i], scores)
		}
	}
	if scores[0] <= DefaultBlurThreshold {
		t.Errorf("unblurred reference scored %d, expected above threshold", scores[0])
	}
}

func TestEvaluateTinyImageDoesNotPanic(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{name: "2x2", w: 2, h: 2},
		{name: "1x1", w: 1, h: 1},
		{name: "1 pixel tall strip", w: 500, h: 1},
		{name: "2 pixels tall strip", w: 500, h: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := checkerboard(tt.w, tt.h, 1)
			g := newTestGatekeeper(t, fakeDecoder{img: img})

			verdict := g.Evaluate(context.Background(), []byte("img"))

			if !verdict.IsBlurry || verdict.Score != 0 {
				t.Errorf("degenerate image verdict = %+v, want blurry score 0", verdict)
			}
		})
	}
}

func TestEvaluateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGatekeeper(t, fakeDecoder{img: checkerboard(800, 800, 10)})
	verdict := g.Evaluate(ctx, []byte("img"))

	if verdict.Reason != ReasonCanceled {
		t.Errorf("Reason = %q, want %q", verdict.Reason, ReasonCanceled)
	}
}

func TestEvaluateInvoiceEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-resolution invoice scenario in short mode")
	}

	// 3000x4000 clear printed invoice, downscaled internally to 800x1066.
	data := encodePNG(t, invoicePhoto())
	g := newTestGatekeeper(t, nil)

	verdict := g.Evaluate(context.Background(), data)

	if verdict.IsBlurry {
		t.Errorf("clear invoice declared blurry with score %d", verdict.Score)
	}
	if verdict.Score < 45 {
		t.Errorf("Score = %d, want >= 45", verdict.Score)
	}
	if verdict.Reason != ReasonMeasured {
		t.Errorf("Reason = %q, want %q", verdict.Reason, ReasonMeasured)
	}
}

func TestEvaluateConcurrentInvocations(t *testing.T) {
	// Goods photo and document photo are gated in parallel; evaluations
	// must not interfere.
	sharp := encodePNG(t, checkerboard(800, 800, 10))
	blurry := encodePNG(t, solidImage(800, 800, color.RGBA{90, 90, 90, 255}))
	g := newTestGatekeeper(t, nil)

	type result struct {
		verdict Verdict
		sharp   bool
	}
	results := make(chan result, 20)

	for i := 0; i < 10; i++ {
		go func() {
			results <- result{g.Evaluate(context.Background(), sharp), true}
		}()
		go func() {
			results <- result{g.Evaluate(context.Background(), blurry), false}
		}()
	}

	for i := 0; i < 20; i++ {
		r := <-results
		if r.sharp && r.verdict.IsBlurry {
			t.Errorf("sharp image declared blurry under concurrency: %+v", r.verdict)
		}
		if !r.sharp && !r.verdict.IsBlurry {
			t.Errorf("blurry image passed the gate under concurrency: %+v", r.verdict)
		}
	}
}

func TestNewGatekeeperRejectsInvalidCalibration(t *testing.T) {
	cal := DefaultCalibration()
	cal.TopFraction = 2.0

	_, err := NewGatekeeper(cal, nil, logging.NewTestLogger())
	if !errors.Is(err, ErrInvalidTopFraction) {
		t.Errorf("NewGatekeeper() error = %v, want %v", err, ErrInvalidTopFraction)
	}
}
