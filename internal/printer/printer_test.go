package printer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/raster"
)

func TestFrameHeader(t *testing.T) {
	bm := raster.New(HeadWidth, 2)
	bm.Set(0, 0, true)

	out, err := Frame(bm, Options{})
	require.NoError(t, err)

	// ESC @
	assert.Equal(t, []byte{0x1B, 0x40}, out[:2])
	// GS v 0, normal density, stride 48 (384/8), 2 rows.
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 48, 0, 2, 0}, out[2:10])
	// First data byte carries the MSB-first ink bit at x=0.
	assert.Equal(t, byte(0x80), out[10])
	assert.Len(t, out, 10+2*48)
}

func TestFramePayloadIsPackedRows(t *testing.T) {
	bm := raster.New(16, 1)
	bm.Set(8, 0, true)
	bm.Set(15, 0, true)

	out, err := Frame(bm, Options{FeedLines: 3})
	require.NoError(t, err)

	payload := out[10 : 10+2]
	assert.Equal(t, []byte{0x00, 0x81}, payload)
	// Feed lines trail the raster.
	assert.Equal(t, []byte{0x0A, 0x0A, 0x0A}, out[len(out)-3:])
}

func TestFrameSplitsTallRasters(t *testing.T) {
	bm := raster.New(8, 300) // stride 1, forces a 255 + 45 row split

	out, err := Frame(bm, Options{})
	require.NoError(t, err)

	// First block header after ESC @.
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 1, 0, 255, 0}, out[2:10])
	// Second block header after the first block's 255 payload bytes.
	second := out[10+255:]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 1, 0, 45, 0}, second[:8])
	assert.Len(t, out, 2+8+255+8+45)
}

func TestFrameRejectsOversizeAndEmpty(t *testing.T) {
	_, err := Frame(nil, Options{})
	assert.Error(t, err)

	_, err = Frame(raster.New(HeadWidth+8, 10), Options{})
	assert.Error(t, err)
}

func TestPreviewClientLifecycle(t *testing.T) {
	p := NewPreview()
	assert.Equal(t, StatusDisconnected, p.Status())

	// Printing before connecting is refused.
	err := p.Print(context.Background(), raster.New(8, 8), Options{})
	assert.Error(t, err)

	require.NoError(t, p.Connect(context.Background()))
	assert.Equal(t, StatusConnected, p.Status())

	bm := raster.New(8, 8)
	bm.Set(3, 3, true)
	require.NoError(t, p.Print(context.Background(), bm, Options{}))

	jobs := p.Jobs()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].Equal(bm))
	// The capture is a snapshot, not an alias.
	bm.Set(0, 0, true)
	assert.False(t, jobs[0].Get(0, 0))

	frames := p.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0x1B), frames[0][0])

	require.NoError(t, p.Disconnect())
	assert.Equal(t, StatusDisconnected, p.Status())
	require.NoError(t, p.Dispose())
}

func TestPreviewEmitsEvents(t *testing.T) {
	p := NewPreview()
	require.NoError(t, p.Connect(context.Background()))

	ev := <-p.Events()
	assert.Equal(t, EventConnected, ev.Type)
	assert.Equal(t, StatusConnected, ev.Status)
}

func TestPreviewCancelledContext(t *testing.T) {
	p := NewPreview()
	require.NoError(t, p.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Print(ctx, raster.New(8, 8), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Jobs())
}
