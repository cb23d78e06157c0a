// Package text rasterises text layers into 1-bit ink bitmaps using the
// embedded Go font faces.
package text

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

// Families lists the selectable font families.
func Families() []string {
	return []string{"Go", "Go Mono"}
}

var fontData = map[string]map[[2]bool][]byte{
	"Go": {
		{false, false}: goregular.TTF,
		{true, false}:  gobold.TTF,
		{false, true}:  goitalic.TTF,
		{true, true}:   gobolditalic.TTF,
	},
	"Go Mono": {
		{false, false}: gomono.TTF,
		{true, false}:  gomonobold.TTF,
		{false, true}:  gomonoitalic.TTF,
		{true, true}:   gomonobolditalic.TTF,
	},
}

var (
	fontMu     sync.Mutex
	fontParsed = map[*byte]*opentype.Font{}
)

func parsedFont(ttf []byte) (*opentype.Font, error) {
	fontMu.Lock()
	defer fontMu.Unlock()
	key := &ttf[0]
	if f, ok := fontParsed[key]; ok {
		return f, nil
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	fontParsed[key] = f
	return f, nil
}

func face(family string, bold, italic bool, size float64) (font.Face, error) {
	styles, ok := fontData[family]
	if !ok {
		styles = fontData["Go"]
	}
	f, err := parsedFont(styles[[2]bool{bold, italic}])
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Rasterize renders the text layer's content into a 1-bit bitmap and
// returns it along with its pixel dimensions. Glyph coverage is thresholded
// at 50%, so output is pure ink regardless of the layer's color field.
func Rasterize(t *layer.Text) (*raster.Bitmap, int, int, error) {
	size := t.FontSize
	if size < 4 {
		size = 4
	}
	fc, err := face(t.Family, t.Bold, t.Italic, size)
	if err != nil {
		return nil, 0, 0, err
	}
	defer fc.Close()

	lines := strings.Split(t.Text, "\n")
	metrics := fc.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	widths := make([]int, len(lines))
	maxWidth := 1
	for i, line := range lines {
		widths[i] = font.MeasureString(fc, line).Ceil()
		if widths[i] > maxWidth {
			maxWidth = widths[i]
		}
	}
	height := lineHeight * len(lines)
	if height < 1 {
		height = 1
	}

	dst := image.NewGray(image.Rect(0, 0, maxWidth, height))
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: fc,
	}
	for i, line := range lines {
		var x int
		switch t.Align {
		case layer.AlignCenter:
			x = (maxWidth - widths[i]) / 2
		case layer.AlignRight:
			x = maxWidth - widths[i]
		}
		drawer.Dot = fixed.P(x, ascent+i*lineHeight)
		drawer.DrawString(line)
	}

	bm := raster.New(maxWidth, height)
	for y := 0; y < height; y++ {
		for x := 0; x < maxWidth; x++ {
			if dst.GrayAt(x, y).Y < 128 {
				bm.Set(x, y, true)
			}
		}
	}
	return bm, maxWidth, height, nil
}
