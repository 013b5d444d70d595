// preprocess.go implements the Preprocessor stage: decode raw bytes,
// normalize to the analysis width, and convert to a grayscale grid.
//
// Decoding is abstracted behind the Decoder interface so the pipeline can be
// exercised against synthetic in-memory pixel grids without real image
// files.
package sharpness

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Preprocessing errors.
var (
	// ErrEmptyImage indicates zero-length image data.
	ErrEmptyImage = errors.New("sharpness: empty image data")

	// ErrInvalidImage indicates the payload could not be decoded.
	ErrInvalidImage = errors.New("sharpness: invalid image data")

	// ErrZeroDimensions indicates a decoded image with no pixels.
	ErrZeroDimensions = errors.New("sharpness: image has zero width or height")
)

// Decoder turns raw upload bytes into a decoded image. The production
// implementation wraps the platform codecs; tests substitute decoders that
// return synthetic images or fixed errors.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// StdDecoder decodes PNG, JPEG and GIF payloads via the stdlib image codecs.
type StdDecoder struct{}

// Decode decodes image data from common formats.
// This is a pure function with no side effects.
func (StdDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return img, nil
}

// DownscaleToWidth resamples img to the given width, preserving aspect
// ratio with the height floored. CatmullRom interpolation is used because
// it protects edges from aliasing; a cheap nearest-neighbour downscale
// would manufacture false edge energy and skew the score.
//
// Images at or below the target width are returned unchanged: upscaling
// would invert the scale direction and fabricate sharpness that the sensor
// never captured.
func DownscaleToWidth(img image.Image, targetWidth int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= targetWidth {
		return img
	}

	scale := float64(targetWidth) / float64(w)
	newH := int(float64(h) * scale)
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	return dst
}

// Preprocess decodes raw image bytes and produces the grayscale analysis
// grid at the calibrated width. This composes the atomic steps:
// decode -> downscale -> grayscale.
func Preprocess(dec Decoder, data []byte, targetWidth int) (*GrayscaleGrid, error) {
	img, err := dec.Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrZeroDimensions
	}

	scaled := DownscaleToWidth(img, targetWidth)

	return NewGrayscaleGrid(scaled), nil
}
