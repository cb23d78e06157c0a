package dither

// Parameter ranges. Out-of-range values are clamped, never rejected: a
// slider dragged past its end must not abort a reprocessing run.
const (
	MinThreshold = 0
	MaxThreshold = 255
	MinLevel     = 0
	MaxLevel     = 255
	MinContrast  = 0
	MaxContrast  = 200
	MinCellSize  = 2
	MaxCellSize  = 16

	NeutralBrightness = 128
	NeutralContrast   = 100
)

// Params holds every input that, together with the source image and the
// target dimensions, fully determines a dithered bitmap.
type Params struct {
	Method     Method `json:"method"`
	Threshold  int    `json:"threshold"`
	Brightness int    `json:"brightness"`
	Contrast   int    `json:"contrast"`
	Invert     bool   `json:"invert"`
	BayerSize  int    `json:"bayerSize"`
	CellSize   int    `json:"cellSize"`
}

// DefaultParams returns the parameters a fresh image layer starts with.
func DefaultParams() Params {
	return Params{
		Method:     MethodFloydSteinberg,
		Threshold:  128,
		Brightness: NeutralBrightness,
		Contrast:   NeutralContrast,
		BayerSize:  4,
		CellSize:   4,
	}
}

// Clamped returns a copy with every field forced into its valid range.
// The Bayer matrix size is additionally rounded to the nearest even value
// (ties round up) because the matrix construction doubles from a base cell.
func (p Params) Clamped() Params {
	p.Threshold = clampInt(p.Threshold, MinThreshold, MaxThreshold)
	p.Brightness = clampInt(p.Brightness, MinLevel, MaxLevel)
	p.Contrast = clampInt(p.Contrast, MinContrast, MaxContrast)
	p.BayerSize = clampInt(nearestEven(p.BayerSize), MinCellSize, MaxCellSize)
	p.CellSize = clampInt(p.CellSize, MinCellSize, MaxCellSize)
	return p
}

func nearestEven(n int) int {
	if n%2 == 0 {
		return n
	}
	return n + 1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
