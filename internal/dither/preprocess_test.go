package dither

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPreprocessNilSource(t *testing.T) {
	_, err := Preprocess(nil, NeutralBrightness, NeutralContrast)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPreprocessLuminance(t *testing.T) {
	img := solid(1, 1, color.RGBA{R: 255, A: 255})
	g, err := Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	// 0.299 * 255 = 76.245
	assert.Equal(t, uint8(76), g.At(0, 0))

	img = solid(1, 1, color.RGBA{G: 255, A: 255})
	g, err = Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	assert.Equal(t, uint8(149), g.At(0, 0)) // 0.587 * 255

	img = solid(1, 1, color.RGBA{B: 255, A: 255})
	g, err = Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	assert.Equal(t, uint8(29), g.At(0, 0)) // 0.114 * 255
}

func TestPreprocessContrastThenBrightness(t *testing.T) {
	img := solid(1, 1, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	// Contrast 150%: (100-128)*1.5 + 128 = 86.
	g, err := Preprocess(img, NeutralBrightness, 150)
	require.NoError(t, err)
	assert.Equal(t, uint8(86), g.At(0, 0))

	// Then brightness +22 on top: 86 + (150-128) = 108.
	g, err = Preprocess(img, 150, 150)
	require.NoError(t, err)
	assert.Equal(t, uint8(108), g.At(0, 0))
}

func TestPreprocessClampsOutput(t *testing.T) {
	img := solid(1, 1, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	g, err := Preprocess(img, 255, 200)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), g.At(0, 0))

	img = solid(1, 1, color.RGBA{R: 5, G: 5, B: 5, A: 255})
	g, err = Preprocess(img, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), g.At(0, 0))
}

func TestPreprocessTransparentReadsWhite(t *testing.T) {
	// A fully transparent pixel must composite over the white label
	// stock, not read as premultiplied black.
	img := solid(4, 4, color.RGBA{})
	g, err := Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	for _, v := range g.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestPreprocessPartialAlphaBlendsTowardWhite(t *testing.T) {
	// 50% black over white lands near mid-gray.
	img := solid(1, 1, color.RGBA{A: 128})
	g, err := Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	assert.InDelta(t, 127, int(g.At(0, 0)), 2)
}

func TestPreprocessNeutralIsIdentity(t *testing.T) {
	img := solid(3, 3, color.RGBA{R: 77, G: 77, B: 77, A: 255})
	g, err := Preprocess(img, NeutralBrightness, NeutralContrast)
	require.NoError(t, err)
	for _, v := range g.Pix {
		assert.Equal(t, uint8(77), v)
	}
}

func TestParamsClamped(t *testing.T) {
	p := Params{Threshold: 300, Brightness: -5, Contrast: 999, BayerSize: 5, CellSize: 99}
	c := p.Clamped()
	assert.Equal(t, 255, c.Threshold)
	assert.Equal(t, 0, c.Brightness)
	assert.Equal(t, 200, c.Contrast)
	assert.Equal(t, 6, c.BayerSize) // odd rounds up to even
	assert.Equal(t, 16, c.CellSize)

	p = Params{BayerSize: 17, CellSize: 1, Contrast: 100, Brightness: 128, Threshold: 128}
	c = p.Clamped()
	assert.Equal(t, 16, c.BayerSize) // 17 -> 18 -> clamp 16
	assert.Equal(t, 2, c.CellSize)
}
