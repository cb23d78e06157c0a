package panels

import (
	"fmt"

	"labelpress/internal/app"
	"labelpress/internal/layer"
	"labelpress/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LayersPanel lists the layer stack top-first with visibility, lock, and
// z-order controls.
type LayersPanel struct {
	state     *app.State
	canvas    *canvas.LabelCanvas
	container fyne.CanvasObject

	list *widget.List
	rows []layer.ID // display order, top layer first

	upButton        *widget.Button
	downButton      *widget.Button
	duplicateButton *widget.Button
	deleteButton    *widget.Button
	nameEntry       *widget.Entry
	visibleCheck    *widget.Check
	lockCheck       *widget.Check
	opacity         *widget.Slider
	rotation        *widget.Slider

	syncing bool
}

// NewLayersPanel creates a new layers panel.
func NewLayersPanel(state *app.State, cvs *canvas.LabelCanvas) *LayersPanel {
	lp := &LayersPanel{
		state:  state,
		canvas: cvs,
	}

	lp.list = widget.NewList(
		func() int { return len(lp.rows) },
		func() fyne.CanvasObject {
			return widget.NewLabel("layer")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			if i < 0 || i >= len(lp.rows) {
				return
			}
			l := lp.state.Store.Layer(lp.rows[i])
			if l == nil {
				return
			}
			b := l.Meta()
			text := b.Name
			if !b.Visible {
				text += " (hidden)"
			}
			if b.Locked {
				text += " 🔒"
			}
			obj.(*widget.Label).SetText(text)
		},
	)
	lp.list.OnSelected = func(i widget.ListItemID) {
		if lp.syncing || i < 0 || i >= len(lp.rows) {
			return
		}
		lp.state.SelectLayer(lp.rows[i])
		lp.canvas.Refresh()
	}

	lp.upButton = widget.NewButton("Up", func() { lp.moveSelected(1) })
	lp.downButton = widget.NewButton("Down", func() { lp.moveSelected(-1) })
	lp.duplicateButton = widget.NewButton("Duplicate", func() {
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		if _, err := lp.state.DuplicateLayer(id); err != nil {
			fmt.Printf("duplicate layer %d: %v\n", id, err)
			return
		}
		lp.Reload()
		lp.canvas.Refresh()
	})
	lp.deleteButton = widget.NewButton("Delete", func() {
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.RemoveLayer(id)
		lp.canvas.Refresh()
	})

	lp.nameEntry = widget.NewEntry()
	lp.nameEntry.SetPlaceHolder("Layer name")
	lp.nameEntry.OnSubmitted = func(name string) {
		if lp.syncing || name == "" {
			return
		}
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.RenameLayer(id, name)
		lp.Reload()
	}

	lp.visibleCheck = widget.NewCheck("Visible", func(v bool) {
		if lp.syncing {
			return
		}
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.Store.SetVisible(id, v)
		lp.state.SetModified(true)
		lp.Reload()
		lp.canvas.Refresh()
	})
	lp.lockCheck = widget.NewCheck("Locked", func(v bool) {
		if lp.syncing {
			return
		}
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.SetLocked(id, v)
		lp.Reload()
		lp.canvas.Refresh()
	})

	lp.opacity = widget.NewSlider(0, 100)
	lp.opacity.Step = 1
	lp.opacity.OnChanged = func(v float64) {
		if lp.syncing {
			return
		}
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.Store.SetOpacity(id, v/100)
		lp.canvas.Refresh()
	}
	lp.opacity.OnChangeEnded = func(v float64) {
		lp.state.SetModified(true)
	}

	lp.rotation = widget.NewSlider(0, 360)
	lp.rotation.Step = 1
	lp.rotation.OnChanged = func(v float64) {
		if lp.syncing {
			return
		}
		id := lp.state.Store.Selected()
		if id == 0 {
			return
		}
		lp.state.Store.SetRotation(id, v)
		lp.canvas.Refresh()
	}
	lp.rotation.OnChangeEnded = func(v float64) {
		lp.state.SetModified(true)
	}

	controls := container.NewVBox(
		container.NewHBox(lp.upButton, lp.downButton, lp.duplicateButton, lp.deleteButton),
		lp.nameEntry,
		container.NewHBox(lp.visibleCheck, lp.lockCheck),
		widget.NewLabel("Opacity"),
		lp.opacity,
		widget.NewLabel("Rotation"),
		lp.rotation,
	)

	lp.container = container.NewBorder(nil, controls, nil, nil, lp.list)
	lp.Reload()
	return lp
}

// Container returns the panel container.
func (lp *LayersPanel) Container() fyne.CanvasObject {
	return lp.container
}

// Reload rebuilds the row list from the store and re-syncs the controls.
func (lp *LayersPanel) Reload() {
	layers := lp.state.Store.Layers()
	lp.rows = lp.rows[:0]
	for i := len(layers) - 1; i >= 0; i-- {
		lp.rows = append(lp.rows, layers[i].Meta().ID)
	}

	lp.syncing = true
	defer func() { lp.syncing = false }()

	lp.list.Refresh()

	selected := lp.state.Store.Selected()
	if selected == 0 {
		lp.list.UnselectAll()
		return
	}
	for i, id := range lp.rows {
		if id == selected {
			lp.list.Select(i)
			break
		}
	}

	l := lp.state.Store.Layer(selected)
	if l == nil {
		return
	}
	b := l.Meta()
	lp.nameEntry.SetText(b.Name)
	lp.visibleCheck.SetChecked(b.Visible)
	lp.lockCheck.SetChecked(b.Locked)
	lp.opacity.SetValue(b.Opacity * 100)
	lp.rotation.SetValue(b.Rotation)
}

func (lp *LayersPanel) moveSelected(delta int) {
	id := lp.state.Store.Selected()
	if id == 0 {
		return
	}
	if err := lp.state.MoveLayer(id, delta); err != nil {
		fmt.Printf("move layer %d: %v\n", id, err)
		return
	}
	lp.Reload()
	lp.canvas.Refresh()
}
