// Package app provides the application state aggregate: the layer store,
// the reprocessing scheduler, canvas geometry, project bookkeeping, and
// the event fan-out the UI subscribes to.
package app

import (
	"fmt"
	"image"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"labelpress/internal/compose"
	"labelpress/internal/layer"
	"labelpress/internal/printer"
	"labelpress/internal/project"
	"labelpress/internal/raster"
	"labelpress/internal/schedule"
	"labelpress/internal/text"
)

// DefaultCanvasHeight is the starting label length in pixels.
const DefaultCanvasHeight = 240

// EventType identifies application events.
type EventType int

const (
	EventLayersChanged EventType = iota
	EventSelectionChanged
	EventBitmapUpdated
	EventCanvasChanged
	EventProjectLoaded
	EventProjectSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state.
type State struct {
	mu sync.RWMutex

	ProjectPath string
	Modified    bool

	CanvasWidth  int // fixed print head width
	CanvasHeight int

	Store *layer.Store
	Sched *schedule.Scheduler

	imageCount int
	textCount  int

	listeners map[EventType][]EventListener
}

// NewState creates the application state with an empty project.
func NewState() *State {
	s := &State{
		CanvasWidth:  printer.HeadWidth,
		CanvasHeight: DefaultCanvasHeight,
		Store:        layer.NewStore(),
		listeners:    make(map[EventType][]EventListener),
	}
	s.Sched = schedule.New(schedule.DefaultInterval, s.runPipeline, s.applyResult)
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// runPipeline executes the heavy chain for the scheduler, off the UI
// goroutine. It reads only the layer's immutable source and a locked
// snapshot of its current parameters.
func (s *State) runPipeline(id layer.ID, e schedule.Edits) (schedule.Result, error) {
	img, ok := s.Store.Image(id)
	if !ok {
		return schedule.Result{}, fmt.Errorf("image layer %d not found", id)
	}
	stored, _ := s.Store.Params(id)
	params := e.Apply(stored)
	w, h := img.PixelSize()
	bm, err := RenderImage(img.Source, params, w, h)
	if err != nil {
		return schedule.Result{}, err
	}
	return schedule.Result{Params: params, Bitmap: bm}, nil
}

// applyResult installs a still-relevant scheduler result.
func (s *State) applyResult(id layer.ID, r schedule.Result) {
	s.Store.SetParams(id, r.Params)
	s.Store.SetBitmap(id, r.Bitmap)
	s.SetModified(true)
	s.Emit(EventBitmapUpdated, id)
}

// AddImageFromFile decodes an image file and adds it as a new layer.
func (s *State) AddImageFromFile(path string) (layer.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return s.AddImage(src)
}

// AddImage adds a decoded source image as a new top layer with default
// parameters, runs the pipeline once, and selects the layer.
func (s *State) AddImage(src image.Image) (layer.ID, error) {
	s.mu.Lock()
	s.imageCount++
	name := fmt.Sprintf("Image %d", s.imageCount)
	s.mu.Unlock()

	l := layer.NewImage(name, src, s.CanvasWidth)
	id := s.Store.Add(l)
	if err := s.Regenerate(id); err != nil {
		s.Store.Remove(id)
		return 0, err
	}
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
	s.SelectLayer(id)
	return id, nil
}

// AddText adds a text layer, rasterises it, and selects it.
func (s *State) AddText(content string) (layer.ID, error) {
	s.mu.Lock()
	s.textCount++
	name := fmt.Sprintf("Text %d", s.textCount)
	s.mu.Unlock()

	l := layer.NewText(name, content)
	id := s.Store.Add(l)
	if err := s.RefreshText(id); err != nil {
		s.Store.Remove(id)
		return 0, err
	}
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
	s.SelectLayer(id)
	return id, nil
}

// Regenerate synchronously re-runs the pipeline for an image layer using
// its stored parameters. This is the programmatic path (project load,
// batch edits): it is keyed by layer id and works regardless of selection.
func (s *State) Regenerate(id layer.ID) error {
	img, ok := s.Store.Image(id)
	if !ok {
		return fmt.Errorf("image layer %d not found", id)
	}
	w, h := img.PixelSize()
	bm, err := RenderImage(img.Source, img.Params, w, h)
	if err != nil {
		return err
	}
	s.Store.SetBitmap(id, bm)
	s.Emit(EventBitmapUpdated, id)
	return nil
}

// RefreshText re-rasterises a text layer and updates its placement size to
// the measured text extent.
func (s *State) RefreshText(id layer.ID) error {
	t, ok := s.Store.Text(id)
	if !ok {
		return fmt.Errorf("text layer %d not found", id)
	}
	bm, w, h, err := text.Rasterize(t)
	if err != nil {
		return err
	}
	s.Store.SetSize(id, float64(w), float64(h))
	s.Store.SetBitmap(id, bm)
	s.Emit(EventBitmapUpdated, id)
	return nil
}

// UpdateText mutates a text layer's content or styling and re-rasterises.
func (s *State) UpdateText(id layer.ID, mutate func(*layer.Text)) error {
	t, ok := s.Store.Text(id)
	if !ok {
		return fmt.Errorf("text layer %d not found", id)
	}
	mutate(t)
	if err := s.RefreshText(id); err != nil {
		return err
	}
	s.SetModified(true)
	return nil
}

// SelectLayer selects the layer and retargets the scheduler. Pending edits
// for the previously active layer are dropped.
func (s *State) SelectLayer(id layer.ID) {
	if err := s.Store.Select(id); err != nil {
		return
	}
	s.Sched.SetActive(id)
	s.Emit(EventSelectionChanged, id)
}

// ClearSelection empties the selection and the scheduler target.
func (s *State) ClearSelection() {
	s.Store.Select(0)
	s.Sched.SetActive(0)
	s.Emit(EventSelectionChanged, layer.ID(0))
}

// RemoveLayer deletes the layer and any scheduler state it had.
func (s *State) RemoveLayer(id layer.ID) {
	if !s.Store.Remove(id) {
		return
	}
	s.Sched.Forget(id)
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
	s.Emit(EventSelectionChanged, s.Store.Selected())
}

// DuplicateLayer copies a layer just above the original and selects the
// copy.
func (s *State) DuplicateLayer(id layer.ID) (layer.ID, error) {
	dup, err := s.Store.Duplicate(id)
	if err != nil {
		return 0, err
	}
	s.SetModified(true)
	s.Emit(EventLayersChanged, dup)
	s.SelectLayer(dup)
	return dup, nil
}

// RenameLayer renames a layer.
func (s *State) RenameLayer(id layer.ID, name string) {
	s.Store.SetName(id, name)
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
}

// NudgeLayer moves a layer by a small position delta. Locked layers are
// refused by the store.
func (s *State) NudgeLayer(id layer.ID, dx, dy float64) error {
	if err := s.Store.Nudge(id, dx, dy); err != nil {
		return err
	}
	s.SetModified(true)
	return nil
}

// MoveLayer shifts a layer in z-order.
func (s *State) MoveLayer(id layer.ID, delta int) error {
	if err := s.Store.Move(id, delta); err != nil {
		return err
	}
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
	return nil
}

// SetLocked toggles a layer lock, clearing selection if needed.
func (s *State) SetLocked(id layer.ID, locked bool) {
	before := s.Store.Selected()
	s.Store.SetLocked(id, locked)
	s.SetModified(true)
	s.Emit(EventLayersChanged, id)
	if after := s.Store.Selected(); after != before {
		s.Sched.SetActive(after)
		s.Emit(EventSelectionChanged, after)
	}
}

// SetCanvasHeight resizes the label length.
func (s *State) SetCanvasHeight(h int) {
	if h < 1 {
		h = 1
	}
	s.mu.Lock()
	s.CanvasHeight = h
	s.mu.Unlock()
	s.SetModified(true)
	s.Emit(EventCanvasChanged, h)
}

// CanvasSize returns the canvas dimensions.
func (s *State) CanvasSize() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CanvasWidth, s.CanvasHeight
}

// Compose renders the print raster: the exact bitmap a printer client
// receives, and the exact pixels the preview shows.
func (s *State) Compose() (*raster.Bitmap, error) {
	w, h := s.CanvasSize()
	return compose.Render(s.Store.Layers(), w, h)
}

// Preview renders the editor view: the print raster plus selection
// decoration.
func (s *State) Preview() (*image.RGBA, error) {
	w, h := s.CanvasSize()
	return compose.Preview(s.Store.Layers(), s.Store.Selected(), w, h)
}

// SaveProject writes the project file.
func (s *State) SaveProject(path string) error {
	_, h := s.CanvasSize()
	f, err := project.Snapshot(s.Store, h)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return err
	}
	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()
	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject replaces the current project with the file's contents. Every
// image layer's bitmap is regenerated sequentially before the load is
// reported complete.
func (s *State) LoadProject(path string) error {
	f, err := project.Load(path)
	if err != nil {
		return err
	}

	s.Store.Reset()
	s.Sched.SetActive(0)

	ids, err := f.Materialize(s.Store)
	if err != nil {
		return err
	}
	for _, id := range ids {
		l := s.Store.Layer(id)
		if l == nil {
			continue
		}
		switch l.Meta().Kind {
		case layer.KindImage:
			if err := s.Regenerate(id); err != nil {
				return fmt.Errorf("regenerate layer %d: %w", id, err)
			}
		case layer.KindText:
			if err := s.RefreshText(id); err != nil {
				return fmt.Errorf("rasterise layer %d: %w", id, err)
			}
		}
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.CanvasHeight = f.CanvasHeight
	if s.CanvasHeight < 1 {
		s.CanvasHeight = DefaultCanvasHeight
	}
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventCanvasChanged, s.CanvasHeight)
	s.Emit(EventLayersChanged, layer.ID(0))
	s.Emit(EventSelectionChanged, layer.ID(0))
	s.Emit(EventProjectLoaded, path)
	return nil
}

// Close releases the scheduler.
func (s *State) Close() {
	s.Sched.Close()
}
