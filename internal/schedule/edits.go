// Package schedule turns the stream of interactive dither-parameter edits
// into a bounded rate of pipeline runs: per-layer throttling with
// last-writer-wins coalescing, a forced flush at gesture end, and ordered,
// discard-safe result application.
package schedule

import (
	"labelpress/internal/dither"
)

// Edits is a set of pending parameter changes. A nil field means "not
// edited"; merging keeps only the latest value per field.
type Edits struct {
	Method     *dither.Method
	Threshold  *int
	Brightness *int
	Contrast   *int
	Invert     *bool
	BayerSize  *int
	CellSize   *int
}

// Empty reports whether no field is edited.
func (e Edits) Empty() bool {
	return e.Method == nil && e.Threshold == nil && e.Brightness == nil &&
		e.Contrast == nil && e.Invert == nil && e.BayerSize == nil && e.CellSize == nil
}

// Merge folds in a newer edit set; fields present in the newer set
// supersede the older values.
func (e *Edits) Merge(in Edits) {
	if in.Method != nil {
		e.Method = in.Method
	}
	if in.Threshold != nil {
		e.Threshold = in.Threshold
	}
	if in.Brightness != nil {
		e.Brightness = in.Brightness
	}
	if in.Contrast != nil {
		e.Contrast = in.Contrast
	}
	if in.Invert != nil {
		e.Invert = in.Invert
	}
	if in.BayerSize != nil {
		e.BayerSize = in.BayerSize
	}
	if in.CellSize != nil {
		e.CellSize = in.CellSize
	}
}

// Apply overlays the edits onto a parameter set and clamps the result.
func (e Edits) Apply(p dither.Params) dither.Params {
	if e.Method != nil {
		p.Method = *e.Method
	}
	if e.Threshold != nil {
		p.Threshold = *e.Threshold
	}
	if e.Brightness != nil {
		p.Brightness = *e.Brightness
	}
	if e.Contrast != nil {
		p.Contrast = *e.Contrast
	}
	if e.Invert != nil {
		p.Invert = *e.Invert
	}
	if e.BayerSize != nil {
		p.BayerSize = *e.BayerSize
	}
	if e.CellSize != nil {
		p.CellSize = *e.CellSize
	}
	return p.Clamped()
}

// Helpers for building single-field edits from UI callbacks.

// MethodEdit edits the dither method.
func MethodEdit(m dither.Method) Edits { return Edits{Method: &m} }

// ThresholdEdit edits the threshold.
func ThresholdEdit(v int) Edits { return Edits{Threshold: &v} }

// BrightnessEdit edits the brightness.
func BrightnessEdit(v int) Edits { return Edits{Brightness: &v} }

// ContrastEdit edits the contrast.
func ContrastEdit(v int) Edits { return Edits{Contrast: &v} }

// InvertEdit edits the invert flag.
func InvertEdit(v bool) Edits { return Edits{Invert: &v} }

// BayerSizeEdit edits the Bayer matrix size.
func BayerSizeEdit(v int) Edits { return Edits{BayerSize: &v} }

// CellSizeEdit edits the halftone cell size.
func CellSizeEdit(v int) Edits { return Edits{CellSize: &v} }
