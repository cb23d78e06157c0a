package project

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/dither"
	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

func testSource() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			v := uint8(x * 40)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func populatedStore(t *testing.T) *layer.Store {
	t.Helper()
	st := layer.NewStore()

	img := layer.NewImage("photo", testSource(), 384)
	img.Params.Method = dither.MethodAtkinson
	img.Params.Threshold = 90
	img.Params.Invert = true
	img.Rotation = 45
	img.Opacity = 0.8
	img.Bitmap = raster.New(6, 4) // derived state, must not persist
	st.Add(img)

	txt := layer.NewText("caption", "ACME\nWIDGETS")
	txt.FontSize = 18
	txt.Family = "Go Mono"
	txt.Bold = true
	txt.Align = layer.AlignCenter
	txt.X = 12
	txt.Y = 30
	st.Add(txt)

	return st
}

func TestSnapshotOmitsBitmaps(t *testing.T) {
	st := populatedStore(t)
	f, err := Snapshot(st, 240)
	require.NoError(t, err)

	assert.Equal(t, Version, f.Version)
	assert.Equal(t, 240, f.CanvasHeight)
	require.Len(t, f.Layers, 2)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bitmap")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := populatedStore(t)
	f, err := Snapshot(st, 320)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "label.json")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Version, loaded.Version)
	assert.Equal(t, 320, loaded.CanvasHeight)
	require.Len(t, loaded.Layers, 2)

	imgRec := loaded.Layers[0]
	assert.Equal(t, "image", imgRec.Kind)
	assert.Equal(t, "photo", imgRec.Name)
	assert.Equal(t, 45.0, imgRec.Rotation)
	assert.Equal(t, 0.8, imgRec.Opacity)
	require.NotNil(t, imgRec.Image)
	assert.Equal(t, dither.MethodAtkinson, imgRec.Image.Params.Method)
	assert.Equal(t, 90, imgRec.Image.Params.Threshold)
	assert.True(t, imgRec.Image.Params.Invert)

	// The payload is a decodable PNG of the original source.
	src, err := png.Decode(bytes.NewReader(imgRec.Image.Payload.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), src.Bounds())

	txtRec := loaded.Layers[1]
	assert.Equal(t, "text", txtRec.Kind)
	require.NotNil(t, txtRec.Text)
	assert.Equal(t, "ACME\nWIDGETS", txtRec.Text.Text)
	assert.Equal(t, "Go Mono", txtRec.Text.Family)
	assert.True(t, txtRec.Text.Bold)
	assert.Equal(t, "center", txtRec.Text.Align)
}

func TestMaterializeLeavesBitmapsNil(t *testing.T) {
	st := populatedStore(t)
	f, err := Snapshot(st, 240)
	require.NoError(t, err)

	fresh := layer.NewStore()
	ids, err := f.Materialize(fresh)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	img, ok := fresh.Image(ids[0])
	require.True(t, ok)
	assert.Nil(t, img.Bitmap, "derived bitmaps are regenerated, never loaded")
	assert.Equal(t, dither.MethodAtkinson, img.Params.Method)
	assert.Equal(t, 45.0, img.Rotation)

	txt, ok := fresh.Text(ids[1])
	require.True(t, ok)
	assert.Equal(t, layer.AlignCenter, txt.Align)
	assert.Equal(t, 12.0, txt.X)
	assert.Equal(t, 18.0, txt.FontSize)
}

func TestMaterializePreservesOrder(t *testing.T) {
	st := layer.NewStore()
	for _, name := range []string{"bottom", "middle", "top"} {
		st.Add(layer.NewText(name, name))
	}
	f, err := Snapshot(st, 240)
	require.NoError(t, err)

	fresh := layer.NewStore()
	_, err = f.Materialize(fresh)
	require.NoError(t, err)

	got := fresh.Layers()
	require.Len(t, got, 3)
	assert.Equal(t, "bottom", got[0].Meta().Name)
	assert.Equal(t, "top", got[2].Meta().Name)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "canvasHeight": 240, "layers": []}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "version")
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMaterializeRejectsPayloadlessImage(t *testing.T) {
	f := &File{Version: Version, Layers: []Record{{Kind: "image", Name: "bad"}}}
	_, err := f.Materialize(layer.NewStore())
	assert.Error(t, err)
}

func TestMaterializeClampsParams(t *testing.T) {
	st := populatedStore(t)
	f, err := Snapshot(st, 240)
	require.NoError(t, err)
	f.Layers[0].Image.Params.Threshold = 900
	f.Layers[0].Image.Params.BayerSize = 3

	fresh := layer.NewStore()
	ids, err := f.Materialize(fresh)
	require.NoError(t, err)

	img, ok := fresh.Image(ids[0])
	require.True(t, ok)
	p := img.Params
	assert.Equal(t, dither.MaxThreshold, p.Threshold)
	assert.Equal(t, 4, p.BayerSize)
}
