package panels

import (
	"fmt"

	"labelpress/internal/app"
	"labelpress/internal/layer"
	"labelpress/internal/text"
	"labelpress/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// TextPanel edits the selected text layer: content, font, style, and
// alignment. Every change re-rasterises immediately; text rendering is
// cheap enough to skip the scheduler.
type TextPanel struct {
	state     *app.State
	canvas    *canvas.LabelCanvas
	container fyne.CanvasObject

	content      *widget.Entry
	familySelect *widget.Select
	sizeSlider   *widget.Slider
	boldCheck    *widget.Check
	italicCheck  *widget.Check
	alignSelect  *widget.RadioGroup
	statusLabel  *widget.Label

	syncing bool
}

// NewTextPanel creates a new text panel.
func NewTextPanel(state *app.State, cvs *canvas.LabelCanvas) *TextPanel {
	tp := &TextPanel{
		state:  state,
		canvas: cvs,
	}

	tp.content = widget.NewMultiLineEntry()
	tp.content.SetPlaceHolder("Label text")
	tp.content.OnChanged = func(s string) {
		tp.mutate(func(l *layer.Text) { l.Text = s })
	}

	tp.familySelect = widget.NewSelect(text.Families(), func(family string) {
		tp.mutate(func(l *layer.Text) { l.Family = family })
	})

	tp.sizeSlider = widget.NewSlider(6, 96)
	tp.sizeSlider.Step = 1
	tp.sizeSlider.OnChanged = func(v float64) {
		tp.mutate(func(l *layer.Text) { l.FontSize = v })
	}

	tp.boldCheck = widget.NewCheck("Bold", func(v bool) {
		tp.mutate(func(l *layer.Text) { l.Bold = v })
	})
	tp.italicCheck = widget.NewCheck("Italic", func(v bool) {
		tp.mutate(func(l *layer.Text) { l.Italic = v })
	})

	tp.alignSelect = widget.NewRadioGroup([]string{"Left", "Center", "Right"}, func(s string) {
		var a layer.Align
		switch s {
		case "Center":
			a = layer.AlignCenter
		case "Right":
			a = layer.AlignRight
		default:
			a = layer.AlignLeft
		}
		tp.mutate(func(l *layer.Text) { l.Align = a })
	})
	tp.alignSelect.Horizontal = true

	tp.statusLabel = widget.NewLabel("No text layer selected")
	tp.statusLabel.Wrapping = fyne.TextWrapWord

	tp.container = container.NewVBox(
		tp.statusLabel,
		tp.content,
		widget.NewLabel("Font"),
		tp.familySelect,
		widget.NewLabel("Size"),
		tp.sizeSlider,
		container.NewHBox(tp.boldCheck, tp.italicCheck),
		widget.NewLabel("Alignment"),
		tp.alignSelect,
	)

	tp.SyncSelection()
	return tp
}

// Container returns the panel container.
func (tp *TextPanel) Container() fyne.CanvasObject {
	return tp.container
}

// SyncSelection loads the selected text layer into the controls.
func (tp *TextPanel) SyncSelection() {
	tp.syncing = true
	defer func() { tp.syncing = false }()

	id := tp.state.Store.Selected()
	txt, ok := tp.state.Store.Text(id)
	if !ok {
		tp.statusLabel.SetText("No text layer selected")
		return
	}

	tp.statusLabel.SetText(txt.Name)
	tp.content.SetText(txt.Text)
	tp.familySelect.SetSelected(txt.Family)
	tp.sizeSlider.SetValue(txt.FontSize)
	tp.boldCheck.SetChecked(txt.Bold)
	tp.italicCheck.SetChecked(txt.Italic)
	switch txt.Align {
	case layer.AlignCenter:
		tp.alignSelect.SetSelected("Center")
	case layer.AlignRight:
		tp.alignSelect.SetSelected("Right")
	default:
		tp.alignSelect.SetSelected("Left")
	}
}

// mutate applies an edit to the selected text layer and re-rasterises.
func (tp *TextPanel) mutate(edit func(*layer.Text)) {
	if tp.syncing {
		return
	}
	id := tp.state.Store.Selected()
	if _, ok := tp.state.Store.Text(id); !ok {
		return
	}
	if err := tp.state.UpdateText(id, edit); err != nil {
		fmt.Printf("update text layer %d: %v\n", id, err)
		return
	}
	tp.canvas.Refresh()
}
