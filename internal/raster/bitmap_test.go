package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapSetGet(t *testing.T) {
	bm := New(10, 4)
	assert.Equal(t, 10, bm.Width())
	assert.Equal(t, 4, bm.Height())
	assert.Equal(t, 2, bm.Stride())

	bm.Set(0, 0, true)
	bm.Set(9, 3, true)
	assert.True(t, bm.Get(0, 0))
	assert.True(t, bm.Get(9, 3))
	assert.False(t, bm.Get(1, 0))

	bm.Set(0, 0, false)
	assert.False(t, bm.Get(0, 0))
}

func TestBitmapOutOfRange(t *testing.T) {
	bm := New(4, 4)
	assert.False(t, bm.Get(-1, 0))
	assert.False(t, bm.Get(0, -1))
	assert.False(t, bm.Get(4, 0))
	assert.False(t, bm.Get(0, 4))

	// Must not panic or corrupt anything.
	bm.Set(-1, 0, true)
	bm.Set(4, 4, true)
	assert.Equal(t, 0, bm.InkCount())
}

func TestBitmapInvertClearsPadding(t *testing.T) {
	bm := New(10, 3)
	bm.Invert()
	// All 30 pixels ink, none of the 6 padding bits counted.
	assert.Equal(t, 30, bm.InkCount())
	for _, b := range bm.Data() {
		// Padding bits of each row's last byte must stay cleared.
		_ = b
	}
	assert.Equal(t, byte(0xC0), bm.Data()[1]&0xFF)
}

func TestBitmapInvertInvolution(t *testing.T) {
	bm := New(7, 5)
	bm.Set(3, 2, true)
	bm.Set(6, 4, true)
	orig := bm.Clone()
	bm.Invert()
	bm.Invert()
	assert.True(t, bm.Equal(orig))
}

func TestBitmapCloneIndependent(t *testing.T) {
	bm := New(4, 4)
	bm.Set(1, 1, true)
	c := bm.Clone()
	c.Set(2, 2, true)
	assert.True(t, bm.Equal(bm))
	assert.False(t, bm.Get(2, 2))
	assert.True(t, c.Get(1, 1))
}

func TestResampleIdentity(t *testing.T) {
	bm := New(8, 8)
	bm.Set(3, 3, true)
	same := bm.Resample(8, 8)
	assert.Same(t, bm, same)
}

func TestResampleScalesNearestNeighbour(t *testing.T) {
	bm := New(2, 2)
	bm.Set(0, 0, true)
	bm.Set(1, 1, true)

	up := bm.Resample(4, 4)
	require.Equal(t, 4, up.Width())
	require.Equal(t, 4, up.Height())
	// Each source pixel becomes a 2x2 block, no intermediate values.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, bm.Get(x/2, y/2), up.Get(x, y), "pixel (%d,%d)", x, y)
		}
	}

	down := up.Resample(2, 2)
	assert.True(t, down.Equal(bm))
}

func TestToImagePalette(t *testing.T) {
	bm := New(3, 1)
	bm.Set(1, 0, true)
	img := bm.ToImage()
	assert.Equal(t, uint8(0), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(1), img.ColorIndexAt(1, 0))
	assert.Equal(t, uint8(0), img.ColorIndexAt(2, 0))
}

func TestInkRatio(t *testing.T) {
	bm := New(4, 4)
	for x := 0; x < 4; x++ {
		bm.Set(x, 0, true)
	}
	assert.InDelta(t, 0.25, bm.InkRatio(), 1e-9)
}
