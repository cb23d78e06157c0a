// Package canvas provides the label canvas widget with zoom, layer
// selection, and drag positioning.
package canvas

import (
	"image"

	"labelpress/internal/app"
	"labelpress/internal/layer"
	"labelpress/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.5
	maxZoom  = 8.0
	zoomStep = 1.25
)

// LabelCanvas displays the composited label preview at the current zoom.
// The pixels it shows are the print raster; only the selection decoration
// is editor-side.
type LabelCanvas struct {
	widget.BaseWidget

	state *app.State

	raster *fynecanvas.Raster
	zoom   float64

	dragging bool
	dragID   layer.ID
	dragX    float64 // layer position at drag start
	dragY    float64
	startX   float32 // pointer position at drag start, canvas coords
	startY   float32

	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	onZoomChange func(zoom float64)
	onSelect     func(id layer.ID)
}

// NewLabelCanvas creates the canvas for the given application state.
func NewLabelCanvas(state *app.State) *LabelCanvas {
	lc := &LabelCanvas{
		state: state,
		zoom:  2.0,
	}

	lc.raster = fynecanvas.NewRaster(lc.draw)
	lc.raster.ScaleMode = fynecanvas.ImageScalePixels

	lc.content = newDraggableContent(lc, lc.raster)
	lc.scroll = newZoomScroll(lc.content, lc)

	lc.ExtendBaseWidget(lc)
	lc.updateContentSize()
	return lc
}

// Container returns the canvas container for embedding in layouts.
func (lc *LabelCanvas) Container() fyne.CanvasObject {
	return lc.scroll
}

// SetZoom sets the zoom level.
func (lc *LabelCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	lc.zoom = zoom
	lc.updateContentSize()

	if lc.onZoomChange != nil {
		lc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (lc *LabelCanvas) GetZoom() float64 {
	return lc.zoom
}

// ZoomIn increases the zoom level.
func (lc *LabelCanvas) ZoomIn() {
	lc.SetZoom(lc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (lc *LabelCanvas) ZoomOut() {
	lc.SetZoom(lc.zoom / zoomStep)
}

// OnZoomChange sets a callback for zoom changes.
func (lc *LabelCanvas) OnZoomChange(callback func(zoom float64)) {
	lc.onZoomChange = callback
}

// OnSelect sets a callback for layer selection by click. Called with 0 when
// the click lands on empty canvas.
func (lc *LabelCanvas) OnSelect(callback func(id layer.ID)) {
	lc.onSelect = callback
}

// Refresh redraws the canvas. Call after any layer or canvas change.
func (lc *LabelCanvas) Refresh() {
	lc.updateContentSize()
	lc.raster.Refresh()
}

// hitTest returns the topmost selectable layer under the image-space point.
func (lc *LabelCanvas) hitTest(x, y float64) layer.ID {
	layers := lc.state.Store.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		b := layers[i].Meta()
		if !b.Visible || b.Locked {
			continue
		}
		inv, ok := b.Transform().Inverse()
		if !ok {
			continue
		}
		local := inv.Apply(geometry.NewPoint2D(x, y))
		if local.X >= 0 && local.X < b.Width && local.Y >= 0 && local.Y < b.Height {
			return b.ID
		}
	}
	return 0
}

// updateContentSize resizes the raster to the canvas dimensions at zoom.
func (lc *LabelCanvas) updateContentSize() {
	w, h := lc.state.CanvasSize()
	lc.imgSize = fyne.NewSize(float32(float64(w)*lc.zoom), float32(float64(h)*lc.zoom))

	lc.raster.SetMinSize(lc.imgSize)
	lc.raster.Resize(lc.imgSize)
	if lc.content != nil {
		lc.content.Resize(lc.imgSize)
		lc.content.Refresh()
	}
	lc.raster.Refresh()
	if lc.scroll != nil {
		lc.scroll.Refresh()
	}
}

// draw renders the preview and replicates it to the zoomed raster size.
func (lc *LabelCanvas) draw(w, h int) image.Image {
	cw, ch := lc.state.CanvasSize()
	preview, err := lc.state.Preview()
	if err != nil || preview == nil {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := int(float64(y) / lc.zoom)
		if sy >= ch {
			continue
		}
		for x := 0; x < w; x++ {
			sx := int(float64(x) / lc.zoom)
			if sx >= cw {
				continue
			}
			output.SetRGBA(x, y, preview.RGBAAt(sx, sy))
		}
	}
	return output
}

// CreateRenderer implements fyne.Widget.
func (lc *LabelCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(lc.scroll)
}

// zoomScroll wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *LabelCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *LabelCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *LabelCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(lc *LabelCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: lc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(dc.raster)
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// Tapped selects the topmost unlocked layer under the click.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	lc := dc.canvas

	size := dc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}

	imgX := float64(ev.Position.X) / lc.zoom
	imgY := float64(ev.Position.Y) / lc.zoom
	id := lc.hitTest(imgX, imgY)

	if id != 0 {
		lc.state.SelectLayer(id)
	} else {
		lc.state.ClearSelection()
	}
	if lc.onSelect != nil {
		lc.onSelect(id)
	}
	lc.Refresh()
}

// Dragged moves the selected layer with the pointer.
func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	lc := dc.canvas

	if !lc.dragging {
		imgX := float64(ev.Position.X) / lc.zoom
		imgY := float64(ev.Position.Y) / lc.zoom
		id := lc.hitTest(imgX, imgY)
		if id == 0 {
			return
		}
		l := lc.state.Store.Layer(id)
		if l == nil {
			return
		}
		lc.state.SelectLayer(id)
		lc.dragging = true
		lc.dragID = id
		lc.dragX = l.Meta().X
		lc.dragY = l.Meta().Y
		lc.startX = ev.Position.X - ev.Dragged.DX
		lc.startY = ev.Position.Y - ev.Dragged.DY
	}

	dx := float64(ev.Position.X-lc.startX) / lc.zoom
	dy := float64(ev.Position.Y-lc.startY) / lc.zoom
	lc.state.Store.SetPosition(lc.dragID, lc.dragX+dx, lc.dragY+dy)
	lc.Refresh()
}

func (dc *draggableContent) DragEnd() {
	lc := dc.canvas
	if !lc.dragging {
		return
	}
	lc.dragging = false
	lc.state.SetModified(true)
	lc.Refresh()
}
