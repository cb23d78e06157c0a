// Package compose renders the layer stack into the canvas bitmap. The
// bitmap it produces is simultaneously the editor preview and the exact
// raster handed to the printer; nothing may process it further.
package compose

import (
	"errors"
	"math"

	"labelpress/internal/layer"
	"labelpress/internal/raster"
	"labelpress/pkg/geometry"
)

// ErrContextUnavailable is returned when no drawable canvas exists for the
// requested dimensions. The render pass is skipped and retried next frame.
var ErrContextUnavailable = errors.New("compose: drawing surface unavailable")

// Render composites every visible layer, bottom to top, into a single
// 1-bit canvas bitmap of the given size.
//
// Opacity on a monochrome canvas is resolved on a luminance accumulator:
// the canvas starts white (255), each layer blends its ink (0) and bitmap
// white (255) at the layer's opacity, and the final accumulator is
// thresholded at 128. A fully opaque layer therefore draws its bitmap
// verbatim, which is the WYSIWYG contract.
func Render(layers []layer.Layer, width, height int) (*raster.Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrContextUnavailable
	}

	acc := make([]float64, width*height)
	for i := range acc {
		acc[i] = 255
	}

	for _, l := range layers {
		b := l.Meta()
		if !b.Visible || b.Bitmap == nil || b.Opacity <= 0 {
			continue
		}
		if isAxisAligned(b.Rotation) {
			drawAligned(acc, width, height, b)
		} else {
			drawRotated(acc, width, height, b)
		}
	}

	out := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if acc[y*width+x] < 128 {
				out.Set(x, y, true)
			}
		}
	}
	return out, nil
}

func isAxisAligned(degrees float64) bool {
	return math.Mod(degrees, 360) == 0
}

// drawAligned is the unrotated fast path: a direct blit of the layer
// bitmap at its rounded position.
func drawAligned(acc []float64, width, height int, b *layer.Base) {
	bm := b.Bitmap
	ox := int(math.Round(b.X))
	oy := int(math.Round(b.Y))
	op := b.Opacity
	for ly := 0; ly < bm.Height(); ly++ {
		cy := oy + ly
		if cy < 0 || cy >= height {
			continue
		}
		for lx := 0; lx < bm.Width(); lx++ {
			cx := ox + lx
			if cx < 0 || cx >= width {
				continue
			}
			v := 255.0
			if bm.Get(lx, ly) {
				v = 0
			}
			idx := cy*width + cx
			acc[idx] = acc[idx]*(1-op) + v*op
		}
	}
}

// drawRotated walks the canvas pixels covered by the rotated layer and
// maps each back into layer space with the inverse transform, sampling the
// bitmap nearest-neighbour. No smoothing: every sampled value is 0 or 255.
func drawRotated(acc []float64, width, height int, b *layer.Base) {
	inv, ok := b.Transform().Inverse()
	if !ok {
		return
	}
	bm := b.Bitmap
	op := b.Opacity

	fwd := b.Transform()
	corners := geometry.NewRect(0, 0, float64(bm.Width()), float64(bm.Height())).Corners()
	pts := make([]geometry.Point2D, 4)
	for i, c := range corners {
		pts[i] = fwd.Apply(c)
	}
	bbox := geometry.BoundingBox(pts)

	minX := maxInt(0, int(math.Floor(bbox.X)))
	minY := maxInt(0, int(math.Floor(bbox.Y)))
	maxX := minInt(width-1, int(math.Ceil(bbox.X+bbox.Width)))
	maxY := minInt(height-1, int(math.Ceil(bbox.Y+bbox.Height)))

	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			local := inv.Apply(geometry.NewPoint2D(float64(cx)+0.5, float64(cy)+0.5))
			lx := int(math.Floor(local.X))
			ly := int(math.Floor(local.Y))
			if lx < 0 || lx >= bm.Width() || ly < 0 || ly >= bm.Height() {
				continue
			}
			v := 255.0
			if bm.Get(lx, ly) {
				v = 0
			}
			idx := cy*width + cx
			acc[idx] = acc[idx]*(1-op) + v*op
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
