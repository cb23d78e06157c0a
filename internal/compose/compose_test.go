package compose

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

func bitmapLayer(id layer.ID, x, y float64, bm *raster.Bitmap) *layer.Image {
	l := &layer.Image{
		Base: layer.Base{
			ID:      id,
			Kind:    layer.KindImage,
			Visible: true,
			Opacity: 1.0,
			X:       x,
			Y:       y,
			Width:   float64(bm.Width()),
			Height:  float64(bm.Height()),
			Bitmap:  bm,
		},
	}
	return l
}

func TestRenderContextUnavailable(t *testing.T) {
	_, err := Render(nil, 0, 10)
	assert.ErrorIs(t, err, ErrContextUnavailable)
	_, err = Render(nil, 10, -1)
	assert.ErrorIs(t, err, ErrContextUnavailable)
}

func TestRenderEmptyCanvasIsWhite(t *testing.T) {
	bm, err := Render(nil, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, bm.InkCount())
}

func TestRenderOpaqueLayerVerbatim(t *testing.T) {
	content := raster.New(4, 4)
	content.Set(0, 0, true)
	content.Set(3, 3, true)
	l := bitmapLayer(1, 2, 1, content)

	out, err := Render([]layer.Layer{l}, 10, 10)
	require.NoError(t, err)

	// WYSIWYG: the layer bitmap appears pixel-for-pixel at its offset.
	assert.True(t, out.Get(2, 1))
	assert.True(t, out.Get(5, 4))
	assert.Equal(t, 2, out.InkCount())
}

func TestRenderSkipsInvisible(t *testing.T) {
	content := raster.New(4, 4)
	content.Invert()
	l := bitmapLayer(1, 0, 0, content)
	l.Visible = false

	out, err := Render([]layer.Layer{l}, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, out.InkCount())
}

func TestRenderOpacityThreshold(t *testing.T) {
	content := raster.New(2, 2)
	content.Invert() // all ink

	// 0.4 opacity over white: 255*0.6 = 153, stays white.
	faint := bitmapLayer(1, 0, 0, content)
	faint.Opacity = 0.4
	out, err := Render([]layer.Layer{faint}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, out.InkCount())

	// 0.6 opacity: 255*0.4 = 102 < 128, ink wins.
	strong := bitmapLayer(1, 0, 0, content)
	strong.Opacity = 0.6
	out, err = Render([]layer.Layer{strong}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, out.InkCount())
}

func TestRenderUpperWhiteCoversLowerInk(t *testing.T) {
	bottom := raster.New(2, 2)
	bottom.Invert()
	top := raster.New(2, 2) // all white, fully opaque

	layers := []layer.Layer{
		bitmapLayer(1, 0, 0, bottom),
		bitmapLayer(2, 0, 0, top),
	}
	out, err := Render(layers, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, out.InkCount(), "an opaque layer's white covers ink below")
}

func TestRenderRotation90(t *testing.T) {
	content := raster.New(2, 2)
	content.Set(1, 0, true)
	l := bitmapLayer(1, 0, 0, content)
	l.Rotation = 90

	out, err := Render([]layer.Layer{l}, 2, 2)
	require.NoError(t, err)
	// (1,0) rotated 90 degrees about the layer centre lands at (1,1).
	assert.True(t, out.Get(1, 1))
	assert.Equal(t, 1, out.InkCount())
}

func TestRenderZeroOpacitySkipped(t *testing.T) {
	content := raster.New(2, 2)
	content.Invert()
	l := bitmapLayer(1, 0, 0, content)
	l.Opacity = 0

	out, err := Render([]layer.Layer{l}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, out.InkCount())
}

func TestPreviewMatchesRenderWithoutSelection(t *testing.T) {
	content := raster.New(3, 3)
	content.Set(1, 1, true)
	l := bitmapLayer(1, 0, 0, content)

	img, err := Preview([]layer.Layer{l}, 0, 6, 6)
	require.NoError(t, err)
	bm, err := Render([]layer.Layer{l}, 6, 6)
	require.NoError(t, err)

	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			c := img.RGBAAt(x, y)
			if bm.Get(x, y) {
				assert.Equal(t, color.RGBA{A: 255}, c)
			} else {
				assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, c)
			}
		}
	}
}

func TestPreviewDecoratesSelectedLayer(t *testing.T) {
	content := raster.New(10, 10)
	l := bitmapLayer(1, 5, 5, content)

	img, err := Preview([]layer.Layer{l}, 1, 30, 30)
	require.NoError(t, err)

	found := false
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !found; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.RGBAAt(x, y) == selectionColor {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "selection outline should be drawn")
}

func TestPreviewSkipsDecorationForLockedLayer(t *testing.T) {
	content := raster.New(10, 10)
	l := bitmapLayer(1, 5, 5, content)
	l.Locked = true

	img, err := Preview([]layer.Layer{l}, 1, 30, 30)
	require.NoError(t, err)

	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			assert.NotEqual(t, selectionColor, img.RGBAAt(x, y))
		}
	}
}
