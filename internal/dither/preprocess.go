package dither

import (
	"errors"
	"image"
)

// ErrInvalidInput is returned when a source grid has no pixels.
var ErrInvalidInput = errors.New("dither: invalid input dimensions")

// Grayscale is a row-major grid of adjusted 8-bit intensities, the
// intermediate form between a source image and a dithered bitmap.
type Grayscale struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height
}

// NewGrayscale allocates a zeroed intensity grid.
func NewGrayscale(width, height int) (*Grayscale, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidInput
	}
	return &Grayscale{Width: width, Height: height, Pix: make([]uint8, width*height)}, nil
}

// At returns the intensity at (x, y). The caller is responsible for bounds.
func (g *Grayscale) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set stores the intensity at (x, y).
func (g *Grayscale) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Preprocess converts a source image to adjusted grayscale intensities.
// Per pixel: composite over white (labels have no transparency), Rec. 601
// luminance, then contrast about the 128 midpoint (contrast is a
// percentage, 100 = neutral), then a brightness offset (128 = neutral),
// clamped to [0,255]. Pure: the source is never written.
func Preprocess(src image.Image, brightness, contrast int) (*Grayscale, error) {
	if src == nil {
		return nil, ErrInvalidInput
	}
	bounds := src.Bounds()
	g, err := NewGrayscale(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	brightness = clampInt(brightness, MinLevel, MaxLevel)
	contrast = clampInt(contrast, MinContrast, MaxContrast)
	gain := float64(contrast) / 100.0
	offset := float64(brightness - NeutralBrightness)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gr, b, a := src.At(x, y).RGBA()
			// RGBA is alpha-premultiplied, so adding the remaining
			// alpha composites the pixel over a white background.
			bg := 0xffff - a
			lum := 0.299*float64((r+bg)>>8) + 0.587*float64((gr+bg)>>8) + 0.114*float64((b+bg)>>8)
			lum = (lum-128)*gain + 128
			lum += offset
			g.Pix[i] = clampByte(lum)
			i++
		}
	}
	return g, nil
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
