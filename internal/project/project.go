// Package project provides the versioned JSON project file. Image layers
// are saved without their derived bitmap: only the original source payload
// and the scalar dither parameters persist, and the bitmap is regenerated
// deterministically on load.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/tiff"

	"labelpress/internal/dither"
	"labelpress/internal/layer"
)

// Version is the current project file format version.
const Version = 1

// File is the on-disk project shape.
type File struct {
	Version      int       `json:"version"`
	CanvasHeight int       `json:"canvasHeight"`
	SavedAt      time.Time `json:"savedAt"`
	Layers       []Record  `json:"layers"`
}

// Record is one serialized layer. Exactly one of Image or Text is set,
// matching Kind.
type Record struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Visible  bool    `json:"visible"`
	Locked   bool    `json:"locked"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Opacity  float64 `json:"opacity"`
	Rotation float64 `json:"rotation"`

	Image *ImageRecord `json:"image,omitempty"`
	Text  *TextRecord  `json:"text,omitempty"`
}

// ImageRecord carries the embedded source payload and dither parameters.
type ImageRecord struct {
	Payload ImagePayload  `json:"payload"`
	Params  dither.Params `json:"params"`
}

// ImagePayload embeds the original source image. Data is base64 in JSON.
type ImagePayload struct {
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// TextRecord carries the text layer content and styling. Color is kept for
// round-trip fidelity even though rendering ignores it.
type TextRecord struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
	Family   string  `json:"fontFamily"`
	Bold     bool    `json:"bold"`
	Italic   bool    `json:"italic"`
	Align    string  `json:"align"`
	Color    string  `json:"color"`
}

// Snapshot captures the store into a saveable File. Current bitmaps are
// deliberately not captured.
func Snapshot(st *layer.Store, canvasHeight int) (*File, error) {
	f := &File{
		Version:      Version,
		CanvasHeight: canvasHeight,
		SavedAt:      time.Now().UTC(),
	}
	for _, l := range st.Layers() {
		rec, err := encodeLayer(l)
		if err != nil {
			return nil, err
		}
		f.Layers = append(f.Layers, rec)
	}
	return f, nil
}

func encodeLayer(l layer.Layer) (Record, error) {
	b := l.Meta()
	rec := Record{
		Kind:     b.Kind.String(),
		Name:     b.Name,
		Visible:  b.Visible,
		Locked:   b.Locked,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Opacity:  b.Opacity,
		Rotation: b.Rotation,
	}
	switch t := l.(type) {
	case *layer.Image:
		var buf bytes.Buffer
		if err := png.Encode(&buf, t.Source); err != nil {
			return rec, fmt.Errorf("encode source for layer %q: %w", b.Name, err)
		}
		rec.Image = &ImageRecord{
			Payload: ImagePayload{Format: "png", Data: buf.Bytes()},
			Params:  t.Params,
		}
	case *layer.Text:
		rec.Text = &TextRecord{
			Text:     t.Text,
			FontSize: t.FontSize,
			Family:   t.Family,
			Bold:     t.Bold,
			Italic:   t.Italic,
			Align:    t.Align.String(),
			Color:    t.Color,
		}
	default:
		return rec, fmt.Errorf("unknown layer kind %q", b.Kind)
	}
	return rec, nil
}

// Save writes the file as indented JSON.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads and validates a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if f.Version > Version {
		return nil, fmt.Errorf("project version %d is newer than supported version %d", f.Version, Version)
	}
	return &f, nil
}

// Materialize rebuilds the layers into the store, bottom to top. Bitmaps
// stay nil: the caller must run the full pipeline for every layer, in
// order, before treating the project as loaded.
func (f *File) Materialize(st *layer.Store) ([]layer.ID, error) {
	var ids []layer.ID
	for i, rec := range f.Layers {
		l, err := decodeLayer(rec)
		if err != nil {
			return ids, fmt.Errorf("layer %d: %w", i, err)
		}
		ids = append(ids, st.Add(l))
	}
	return ids, nil
}

func decodeLayer(rec Record) (layer.Layer, error) {
	base := layer.Base{
		Name:     rec.Name,
		Visible:  rec.Visible,
		Locked:   rec.Locked,
		X:        rec.X,
		Y:        rec.Y,
		Width:    rec.Width,
		Height:   rec.Height,
		Opacity:  rec.Opacity,
		Rotation: rec.Rotation,
	}
	switch rec.Kind {
	case "image":
		if rec.Image == nil {
			return nil, fmt.Errorf("image layer without payload")
		}
		src, _, err := image.Decode(bytes.NewReader(rec.Image.Payload.Data))
		if err != nil {
			return nil, fmt.Errorf("decode source payload: %w", err)
		}
		base.Kind = layer.KindImage
		return &layer.Image{
			Base:   base,
			Source: src,
			Params: rec.Image.Params.Clamped(),
		}, nil
	case "text":
		if rec.Text == nil {
			return nil, fmt.Errorf("text layer without content")
		}
		base.Kind = layer.KindText
		return &layer.Text{
			Base:     base,
			Text:     rec.Text.Text,
			FontSize: rec.Text.FontSize,
			Family:   rec.Text.Family,
			Bold:     rec.Text.Bold,
			Italic:   rec.Text.Italic,
			Align:    layer.ParseAlign(rec.Text.Align),
			Color:    rec.Text.Color,
		}, nil
	default:
		return nil, fmt.Errorf("unknown layer kind %q", rec.Kind)
	}
}
