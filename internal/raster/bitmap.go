// Package raster provides the 1-bit bitmap value type shared by the dithering
// pipeline, the compositor, and the printer framing code.
package raster

import (
	"fmt"
	"image"
	"image/color"
)

const bitsPerByte = 8

// Bitmap is a boolean ink matrix packed row-major, one bit per pixel,
// most significant bit first. A set bit means ink (black on paper).
type Bitmap struct {
	width  int
	height int
	stride int // bytes per row
	data   []byte
}

// New creates an all-white bitmap of the given dimensions.
func New(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + bitsPerByte - 1) / bitsPerByte
	return &Bitmap{
		width:  width,
		height: height,
		stride: stride,
		data:   make([]byte, stride*height),
	}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// Stride returns the number of bytes per packed row.
func (b *Bitmap) Stride() int { return b.stride }

// Data returns the packed pixel rows. Rows are padded to whole bytes with
// the trailing bits cleared, which is the layout thermal printers consume.
func (b *Bitmap) Data() []byte { return b.data }

// Get reports whether the pixel at (x, y) is ink. Out-of-range
// coordinates read as no-ink.
func (b *Bitmap) Get(x, y int) bool {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return false
	}
	return b.data[y*b.stride+x/bitsPerByte]&(0x80>>uint(x%bitsPerByte)) != 0
}

// Set sets the pixel at (x, y). Out-of-range coordinates are ignored.
func (b *Bitmap) Set(x, y int, ink bool) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	idx := y*b.stride + x/bitsPerByte
	mask := byte(0x80) >> uint(x%bitsPerByte)
	if ink {
		b.data[idx] |= mask
	} else {
		b.data[idx] &^= mask
	}
}

// Invert flips every pixel in place.
func (b *Bitmap) Invert() {
	for i := range b.data {
		b.data[i] = ^b.data[i]
	}
	b.clearPadding()
}

// clearPadding zeroes the unused bits of the last byte of every row so that
// Data stays canonical after whole-byte operations.
func (b *Bitmap) clearPadding() {
	rem := b.width % bitsPerByte
	if rem == 0 || b.stride == 0 {
		return
	}
	mask := byte(0xFF) << uint(bitsPerByte-rem)
	for y := 0; y < b.height; y++ {
		b.data[y*b.stride+b.stride-1] &= mask
	}
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	c := New(b.width, b.height)
	copy(c.data, b.data)
	return c
}

// Equal reports whether two bitmaps have identical dimensions and pixels.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// InkCount returns the number of ink pixels.
func (b *Bitmap) InkCount() int {
	count := 0
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if b.Get(x, y) {
				count++
			}
		}
	}
	return count
}

// InkRatio returns the fraction of pixels that are ink.
func (b *Bitmap) InkRatio() float64 {
	if b.width == 0 || b.height == 0 {
		return 0
	}
	return float64(b.InkCount()) / float64(b.width*b.height)
}

func (b *Bitmap) String() string {
	return fmt.Sprintf("Bitmap(%dx%d)", b.width, b.height)
}

var monoPalette = color.Palette{color.White, color.Black}

// ToImage converts the bitmap to a two-color paletted image. Encoders that
// understand paletted images (png among them) will write it as 1-bit data.
func (b *Bitmap) ToImage() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, b.width, b.height), monoPalette)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if b.Get(x, y) {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}
