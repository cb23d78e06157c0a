// Package dither converts continuous-tone source images into 1-bit ink
// rasters: grayscale preprocessing, five selectable dithering algorithms,
// and threshold analysis.
package dither

import (
	"fmt"
)

// Method selects the dithering algorithm.
type Method int

const (
	MethodThreshold Method = iota
	MethodFloydSteinberg
	MethodAtkinson
	MethodBayer
	MethodHalftone
)

// Methods lists all algorithms in display order.
func Methods() []Method {
	return []Method{MethodThreshold, MethodFloydSteinberg, MethodAtkinson, MethodBayer, MethodHalftone}
}

func (m Method) String() string {
	switch m {
	case MethodThreshold:
		return "threshold"
	case MethodFloydSteinberg:
		return "floyd-steinberg"
	case MethodAtkinson:
		return "atkinson"
	case MethodBayer:
		return "bayer"
	case MethodHalftone:
		return "halftone"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name used in the UI.
func (m Method) Label() string {
	switch m {
	case MethodThreshold:
		return "Threshold"
	case MethodFloydSteinberg:
		return "Floyd-Steinberg"
	case MethodAtkinson:
		return "Atkinson"
	case MethodBayer:
		return "Bayer (ordered)"
	case MethodHalftone:
		return "Halftone"
	default:
		return "Unknown"
	}
}

// ParseMethod converts a serialized method name back to a Method.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods() {
		if m.String() == s {
			return m, nil
		}
	}
	return MethodThreshold, fmt.Errorf("unknown dither method %q", s)
}

// MarshalText implements encoding.TextMarshaler for project files.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for project files.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
