package panels

import (
	"fmt"
	"strconv"

	"labelpress/internal/app"
	"labelpress/internal/dither"
	"labelpress/internal/layer"
	"labelpress/internal/schedule"
	"labelpress/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// AdjustPanel holds the dither controls for the selected image layer.
// Slider drags go through the scheduler (throttled, coalesced); release and
// discrete controls flush so the final value is always applied.
type AdjustPanel struct {
	state     *app.State
	canvas    *canvas.LabelCanvas
	container fyne.CanvasObject

	methodSelect *widget.Select
	threshold    *widget.Slider
	brightness   *widget.Slider
	contrast     *widget.Slider
	invertCheck  *widget.Check
	bayerSelect  *widget.Select
	cellSelect   *widget.Select
	autoButton   *widget.Button
	statusLabel  *widget.Label
	statsLabel   *widget.Label

	syncing bool
}

// NewAdjustPanel creates a new adjustment panel.
func NewAdjustPanel(state *app.State, cvs *canvas.LabelCanvas) *AdjustPanel {
	ap := &AdjustPanel{
		state:  state,
		canvas: cvs,
	}

	methods := dither.Methods()
	labels := make([]string, len(methods))
	for i, m := range methods {
		labels[i] = m.Label()
	}
	ap.methodSelect = widget.NewSelect(labels, func(label string) {
		if ap.syncing {
			return
		}
		for _, m := range methods {
			if m.Label() == label {
				ap.submitAndFlush(schedule.MethodEdit(m))
				return
			}
		}
	})

	ap.threshold = ap.newSlider(dither.MinThreshold, dither.MaxThreshold, schedule.ThresholdEdit)
	ap.brightness = ap.newSlider(dither.MinLevel, dither.MaxLevel, schedule.BrightnessEdit)
	ap.contrast = ap.newSlider(dither.MinContrast, dither.MaxContrast, schedule.ContrastEdit)

	ap.invertCheck = widget.NewCheck("Invert", func(v bool) {
		if ap.syncing {
			return
		}
		ap.submitAndFlush(schedule.InvertEdit(v))
	})

	ap.bayerSelect = widget.NewSelect(evenSizeLabels(), func(label string) {
		if ap.syncing {
			return
		}
		if n, err := strconv.Atoi(label); err == nil {
			ap.submitAndFlush(schedule.BayerSizeEdit(n))
		}
	})
	ap.cellSelect = widget.NewSelect(cellSizeLabels(), func(label string) {
		if ap.syncing {
			return
		}
		if n, err := strconv.Atoi(label); err == nil {
			ap.submitAndFlush(schedule.CellSizeEdit(n))
		}
	})

	ap.autoButton = widget.NewButton("Auto", func() { ap.autoThreshold() })
	ap.statusLabel = widget.NewLabel("No image layer selected")
	ap.statusLabel.Wrapping = fyne.TextWrapWord
	ap.statsLabel = widget.NewLabel("")

	state.On(app.EventBitmapUpdated, func(data interface{}) {
		if id, ok := data.(layer.ID); ok && id == ap.selectedImage() {
			ap.refreshStats()
		}
	})

	ap.container = container.NewVBox(
		ap.statusLabel,
		ap.statsLabel,
		widget.NewLabel("Method"),
		ap.methodSelect,
		container.NewBorder(nil, nil, widget.NewLabel("Threshold"), ap.autoButton),
		ap.threshold,
		widget.NewLabel("Brightness"),
		ap.brightness,
		widget.NewLabel("Contrast"),
		ap.contrast,
		ap.invertCheck,
		widget.NewLabel("Bayer matrix"),
		ap.bayerSelect,
		widget.NewLabel("Halftone cell"),
		ap.cellSelect,
	)

	ap.SyncSelection()
	return ap
}

// Container returns the panel container.
func (ap *AdjustPanel) Container() fyne.CanvasObject {
	return ap.container
}

// SyncSelection loads the selected image layer's parameters into the
// controls, or disables the panel when no image layer is selected.
func (ap *AdjustPanel) SyncSelection() {
	ap.syncing = true
	defer func() { ap.syncing = false }()

	id := ap.state.Store.Selected()
	img, ok := ap.state.Store.Image(id)
	if !ok {
		ap.statusLabel.SetText("No image layer selected")
		ap.statsLabel.SetText("")
		return
	}

	p := img.Params
	ap.statusLabel.SetText(img.Name)
	ap.refreshStats()
	ap.methodSelect.SetSelected(p.Method.Label())
	ap.threshold.SetValue(float64(p.Threshold))
	ap.brightness.SetValue(float64(p.Brightness))
	ap.contrast.SetValue(float64(p.Contrast))
	ap.invertCheck.SetChecked(p.Invert)
	ap.bayerSelect.SetSelected(strconv.Itoa(p.BayerSize))
	ap.cellSelect.SetSelected(strconv.Itoa(p.CellSize))
}

// newSlider builds a slider whose drags submit throttled edits and whose
// release flushes the final value.
func (ap *AdjustPanel) newSlider(min, max int, edit func(int) schedule.Edits) *widget.Slider {
	s := widget.NewSlider(float64(min), float64(max))
	s.Step = 1
	s.OnChanged = func(v float64) {
		if ap.syncing {
			return
		}
		id := ap.selectedImage()
		if id == 0 {
			return
		}
		ap.state.Sched.Submit(id, edit(int(v)))
	}
	s.OnChangeEnded = func(v float64) {
		if ap.syncing {
			return
		}
		id := ap.selectedImage()
		if id == 0 {
			return
		}
		ap.state.Sched.Submit(id, edit(int(v)))
		ap.state.Sched.Flush(id)
	}
	return s
}

// submitAndFlush applies a discrete edit immediately.
func (ap *AdjustPanel) submitAndFlush(e schedule.Edits) {
	id := ap.selectedImage()
	if id == 0 {
		return
	}
	ap.state.Sched.Submit(id, e)
	ap.state.Sched.Flush(id)
}

// autoThreshold sets the threshold from Otsu's method on the layer's
// adjusted grayscale.
func (ap *AdjustPanel) autoThreshold() {
	id := ap.selectedImage()
	if id == 0 {
		return
	}
	t, err := ap.state.SuggestThreshold(id)
	if err != nil {
		fmt.Printf("auto threshold for layer %d: %v\n", id, err)
		return
	}
	ap.threshold.SetValue(float64(t))
	ap.submitAndFlush(schedule.ThresholdEdit(t))
}

// refreshStats updates the grayscale mean/stddev readout for the selected
// image layer.
func (ap *AdjustPanel) refreshStats() {
	id := ap.selectedImage()
	if id == 0 {
		ap.statsLabel.SetText("")
		return
	}
	mean, std, err := ap.state.GrayStats(id)
	if err != nil {
		ap.statsLabel.SetText("")
		return
	}
	ap.statsLabel.SetText(fmt.Sprintf("Mean %.0f  Std %.0f", mean, std))
}

func (ap *AdjustPanel) selectedImage() layer.ID {
	id := ap.state.Store.Selected()
	if _, ok := ap.state.Store.Image(id); !ok {
		return 0
	}
	return id
}

func evenSizeLabels() []string {
	var labels []string
	for n := dither.MinCellSize; n <= dither.MaxCellSize; n += 2 {
		labels = append(labels, strconv.Itoa(n))
	}
	return labels
}

func cellSizeLabels() []string {
	var labels []string
	for n := dither.MinCellSize; n <= dither.MaxCellSize; n++ {
		labels = append(labels, strconv.Itoa(n))
	}
	return labels
}
