// edges.go implements the EdgeMagnitudeComputer stage: a discrete Laplacian
// stencil over the grayscale grid with a fixed noise gate.
package sharpness

// LaplacianMagnitudes computes the four-neighbour Laplacian magnitude
//
//	lap = |4*center - top - bottom - left - right|
//
// for every interior cell of the grid and returns the magnitudes that
// exceed the noise floor. Values at or below the floor are paper texture,
// lighting gradient or sensor noise, not content edges, and are discarded.
//
// The Laplacian responds strongly to the thin high-contrast strokes of
// printed text while being attenuated by smooth gradients, which is why a
// fixed gate suffices for document imagery.
//
// Grids narrower or shorter than 3 cells have no interior and yield an
// empty sample set; the caller treats that as insufficient content.
// This is a pure function with no side effects.
func LaplacianMagnitudes(grid *GrayscaleGrid, noiseFloor int) []int {
	w := grid.Width
	h := grid.Height

	if w < 3 || h < 3 {
		return nil
	}

	samples := make([]int, 0, (w-2)*(h-2)/4)

	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			center := int(grid.Pix[row+x])
			top := int(grid.Pix[row-w+x])
			bottom := int(grid.Pix[row+w+x])
			left := int(grid.Pix[row+x-1])
			right := int(grid.Pix[row+x+1])

			lap := 4*center - top - bottom - left - right
			if lap < 0 {
				lap = -lap
			}

			if lap > noiseFloor {
				samples = append(samples, lap)
			}
		}
	}

	return samples
}
