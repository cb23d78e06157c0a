// Package panels provides UI panels for the application.
package panels

import (
	"labelpress/internal/app"
	"labelpress/internal/layer"
	"labelpress/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.LabelCanvas
	container *container.AppTabs

	layersPanel *LayersPanel
	adjustPanel *AdjustPanel
	textPanel   *TextPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cvs *canvas.LabelCanvas) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cvs,
	}

	sp.layersPanel = NewLayersPanel(state, cvs)
	sp.adjustPanel = NewAdjustPanel(state, cvs)
	sp.textPanel = NewTextPanel(state, cvs)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Layers", sp.layersPanel.Container()),
		container.NewTabItem("Adjust", sp.adjustPanel.Container()),
		container.NewTabItem("Text", sp.textPanel.Container()),
	)

	state.On(app.EventSelectionChanged, func(data interface{}) {
		sp.SyncSelection()
	})
	state.On(app.EventLayersChanged, func(data interface{}) {
		sp.layersPanel.Reload()
	})

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SyncSelection refreshes every panel from the currently selected layer and
// switches to the tab that can edit it.
func (sp *SidePanel) SyncSelection() {
	sp.layersPanel.Reload()
	sp.adjustPanel.SyncSelection()
	sp.textPanel.SyncSelection()

	id := sp.state.Store.Selected()
	if id == 0 {
		return
	}
	switch {
	case sp.isImage(id):
		sp.container.SelectIndex(1)
	case sp.isText(id):
		sp.container.SelectIndex(2)
	}
}

func (sp *SidePanel) isImage(id layer.ID) bool {
	_, ok := sp.state.Store.Image(id)
	return ok
}

func (sp *SidePanel) isText(id layer.ID) bool {
	_, ok := sp.state.Store.Text(id)
	return ok
}
