// Package layer defines the label's layer types and the ordered store that
// owns them. The store is the single authority for z-order, selection, and
// each layer's current 1-bit bitmap.
package layer

import (
	"image"
	"math"

	"labelpress/internal/dither"
	"labelpress/internal/raster"
	"labelpress/pkg/geometry"
)

// ID uniquely identifies a layer for the lifetime of a project.
// IDs are assigned monotonically and never reused. 0 means "no layer".
type ID int64

// Kind discriminates layer content.
type Kind int

const (
	KindImage Kind = iota
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Align selects horizontal text alignment within a text layer.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// ParseAlign converts a serialized alignment name; unknown names fall back
// to left alignment.
func ParseAlign(s string) Align {
	switch s {
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	default:
		return AlignLeft
	}
}

// Layer is implemented by every layer kind.
type Layer interface {
	Meta() *Base
}

// Base carries the placement and state common to all layer kinds.
type Base struct {
	ID       ID
	Kind     Kind
	Name     string
	Visible  bool
	Locked   bool
	X, Y     float64 // top-left position on the canvas
	Width    float64
	Height   float64
	Opacity  float64 // [0,1]
	Rotation float64 // degrees, about the layer centre

	// Bitmap is the layer's current 1-bit content. Derived, replaced
	// atomically by the store, never mutated in place.
	Bitmap *raster.Bitmap
}

// Meta returns the embedded Base, satisfying the Layer interface. A plain
// Base accessor would be shadowed by the embedded field of the same name.
func (b *Base) Meta() *Base { return b }

// Bounds returns the unrotated placement rectangle.
func (b *Base) Bounds() geometry.Rect {
	return geometry.NewRect(b.X, b.Y, b.Width, b.Height)
}

// Transform maps layer-local coordinates to canvas coordinates, including
// the rotation about the layer centre.
func (b *Base) Transform() geometry.AffineTransform {
	radians := b.Rotation * math.Pi / 180
	return geometry.RotationAbout(radians, b.Bounds().Center()).
		Compose(geometry.Translation(b.X, b.Y))
}

// PixelSize returns the bitmap dimensions the layer's placement demands.
func (b *Base) PixelSize() (int, int) {
	return int(math.Round(b.Width)), int(math.Round(b.Height))
}

// Image is a dithered raster layer. Source is immutable after creation and
// is the single input every reprocessing run starts from.
type Image struct {
	Base
	Source image.Image
	Params dither.Params
}

// NewImage creates an image layer for a decoded source, scaled in placement
// (not in pixels) to fit maxWidth, with default dither parameters. The
// bitmap stays nil until the first pipeline run.
func NewImage(name string, src image.Image, maxWidth int) *Image {
	w := float64(src.Bounds().Dx())
	h := float64(src.Bounds().Dy())
	if maxWidth > 0 && w > float64(maxWidth) {
		scale := float64(maxWidth) / w
		w = float64(maxWidth)
		h = math.Round(h * scale)
	}
	return &Image{
		Base: Base{
			Kind:    KindImage,
			Name:    name,
			Visible: true,
			Opacity: 1.0,
			Width:   w,
			Height:  h,
		},
		Source: src,
		Params: dither.DefaultParams(),
	}
}

// Text is a rendered text layer. Color is persisted for project-file
// compatibility but ignored at render time: the printer has no color
// channel, so text always lands as pure black ink.
type Text struct {
	Base
	Text     string
	FontSize float64
	Family   string
	Bold     bool
	Italic   bool
	Align    Align
	Color    string
}

// NewText creates a text layer with editor defaults. Width and height are
// set by the first rasterisation.
func NewText(name, content string) *Text {
	return &Text{
		Base: Base{
			Kind:    KindText,
			Name:    name,
			Visible: true,
			Opacity: 1.0,
		},
		Text:     content,
		FontSize: 24,
		Family:   "Go",
		Align:    AlignLeft,
		Color:    "#000000",
	}
}
