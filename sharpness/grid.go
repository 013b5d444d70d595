// grid.go defines the grayscale intensity grid produced by the preprocessor
// and consumed by the edge magnitude computer.
package sharpness

import "image"

// GrayscaleGrid is a row-major grid of 8-bit intensity values derived from a
// decoded image. It is built once per evaluation and is not mutated after
// construction.
type GrayscaleGrid struct {
	// Width and Height are the grid dimensions in cells.
	Width  int
	Height int

	// Pix holds Width*Height intensity values in row-major order.
	Pix []uint8
}

// At returns the intensity at (x, y). Callers must stay in bounds; the
// pipeline only indexes interior cells it has verified exist.
func (g *GrayscaleGrid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// NewGrayscaleGrid converts a decoded image into an intensity grid using the
// fixed Rec.601 luminance weights (0.299 R + 0.587 G + 0.114 B).
//
// The conversion is deterministic: identical pixel data always produces an
// identical grid, which in turn guarantees identical scores downstream.
func NewGrayscaleGrid(img image.Image) *GrayscaleGrid {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	grid := &GrayscaleGrid{
		Width:  w,
		Height: h,
		Pix:    make([]uint8, w*h),
	}

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA() returns 16-bit channels; scale to 8-bit before
			// applying the luminance weights.
			r8 := float64(r >> 8)
			g8 := float64(g >> 8)
			b8 := float64(b >> 8)
			grid.Pix[idx] = uint8(0.299*r8 + 0.587*g8 + 0.114*b8)
			idx++
		}
	}

	return grid
}
