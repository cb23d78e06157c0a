package compose

import (
	"image"
	"image/color"
	"math"

	"labelpress/internal/layer"
	"labelpress/pkg/geometry"
)

var (
	selectionColor = color.RGBA{R: 0, G: 120, B: 215, A: 255}
	handleFill     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	dashOn     = 4
	dashOff    = 4
	handleSize = 6
)

// Preview renders the canvas for the editor: the composited 1-bit raster
// expanded to RGBA, with the selection decoration (dashed outline plus
// four corner handles) drawn on top for the selected, unlocked layer.
// The decoration exists only here; the print raster never sees it.
func Preview(layers []layer.Layer, selected layer.ID, width, height int) (*image.RGBA, error) {
	bm, err := Render(layers, width, height)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if bm.Get(x, y) {
				c = color.RGBA{A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	if selected != 0 {
		for _, l := range layers {
			b := l.Meta()
			if b.ID == selected && !b.Locked {
				decorate(img, b)
				break
			}
		}
	}
	return img, nil
}

// decorate draws the rotated bounding outline and corner handles.
func decorate(img *image.RGBA, b *layer.Base) {
	fwd := b.Transform()
	local := geometry.NewRect(0, 0, b.Width, b.Height).Corners()
	var corners [4]geometry.Point2D
	for i, c := range local {
		corners[i] = fwd.Apply(c)
	}

	for i := 0; i < 4; i++ {
		dashedLine(img, corners[i], corners[(i+1)%4])
	}
	for _, c := range corners {
		drawHandle(img, c)
	}
}

// dashedLine walks the segment one pixel at a time with an on/off dash
// pattern.
func dashedLine(img *image.RGBA, from, to geometry.Point2D) {
	length := from.Distance(to)
	steps := int(math.Ceil(length))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if i%(dashOn+dashOff) >= dashOn {
			continue
		}
		x := int(math.Round(from.X + (to.X-from.X)*t))
		y := int(math.Round(from.Y + (to.Y-from.Y)*t))
		setIfInside(img, x, y, selectionColor)
	}
}

func drawHandle(img *image.RGBA, at geometry.Point2D) {
	half := handleSize / 2
	cx := int(math.Round(at.X))
	cy := int(math.Round(at.Y))
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			c := handleFill
			if dx == -half || dx == half || dy == -half || dy == half {
				c = selectionColor
			}
			setIfInside(img, cx+dx, cy+dy, c)
		}
	}
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
