package raster

// Resample scales the bitmap to the exact target dimensions using
// nearest-neighbour sampling. Smoothing filters would reintroduce
// intermediate tones, so this is the only resize a finished raster may
// undergo. Returns the receiver unchanged when the size already matches.
func (b *Bitmap) Resample(width, height int) *Bitmap {
	if width == b.width && height == b.height {
		return b
	}
	out := New(width, height)
	if width <= 0 || height <= 0 || b.width == 0 || b.height == 0 {
		return out
	}
	for y := 0; y < height; y++ {
		srcY := y * b.height / height
		for x := 0; x < width; x++ {
			srcX := x * b.width / width
			if b.Get(srcX, srcY) {
				out.Set(x, y, true)
			}
		}
	}
	return out
}
