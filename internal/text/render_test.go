package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/layer"
)

func textLayer(content string) *layer.Text {
	t := layer.NewText("caption", content)
	return t
}

func TestRasterizeProducesInk(t *testing.T) {
	bm, w, h, err := Rasterize(textLayer("Hello"))
	require.NoError(t, err)
	assert.Equal(t, w, bm.Width())
	assert.Equal(t, h, bm.Height())
	assert.Greater(t, bm.InkCount(), 0, "glyphs must leave ink")
	assert.Less(t, bm.InkRatio(), 1.0, "text is not a solid block")
}

func TestRasterizeMultiLineGrowsHeight(t *testing.T) {
	one, _, h1, err := Rasterize(textLayer("line"))
	require.NoError(t, err)
	two, _, h2, err := Rasterize(textLayer("line\nline"))
	require.NoError(t, err)

	assert.Equal(t, 2*h1, h2, "each line adds one line height")
	assert.Greater(t, two.InkCount(), one.InkCount())
}

func TestRasterizeAlignmentShiftsShortLine(t *testing.T) {
	left := textLayer("wide line here\n.")
	right := textLayer("wide line here\n.")
	right.Align = layer.AlignRight

	lbm, w, h, err := Rasterize(left)
	require.NoError(t, err)
	rbm, _, _, err := Rasterize(right)
	require.NoError(t, err)

	firstInk := func(bmGet func(x, y int) bool) int {
		for x := 0; x < w; x++ {
			for y := h / 2; y < h; y++ {
				if bmGet(x, y) {
					return x
				}
			}
		}
		return -1
	}
	lx := firstInk(lbm.Get)
	rx := firstInk(rbm.Get)
	require.GreaterOrEqual(t, lx, 0)
	require.GreaterOrEqual(t, rx, 0)
	assert.Greater(t, rx, lx, "right alignment pushes the short line over")
}

func TestRasterizeMinimumFontSize(t *testing.T) {
	l := textLayer("x")
	l.FontSize = 0
	bm, _, _, err := Rasterize(l)
	require.NoError(t, err)
	assert.Greater(t, bm.InkCount(), 0)
}

func TestRasterizeUnknownFamilyFallsBack(t *testing.T) {
	l := textLayer("fallback")
	l.Family = "Comic Sans"
	bm, _, _, err := Rasterize(l)
	require.NoError(t, err)
	assert.Greater(t, bm.InkCount(), 0)
}

func TestRasterizeBoldIsHeavier(t *testing.T) {
	regular := textLayer("WEIGHT")
	bold := textLayer("WEIGHT")
	bold.Bold = true

	rbm, _, _, err := Rasterize(regular)
	require.NoError(t, err)
	bbm, _, _, err := Rasterize(bold)
	require.NoError(t, err)

	assert.Greater(t, bbm.InkCount(), rbm.InkCount())
}

func TestFamilies(t *testing.T) {
	assert.Equal(t, []string{"Go", "Go Mono"}, Families())
}
