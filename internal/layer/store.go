package layer

import (
	"fmt"
	"sync"

	"labelpress/internal/dither"
	"labelpress/internal/raster"
)

// Store is the ordered, selection-aware collection of layers. Index 0 is
// the bottom of the stack; the last index draws on top. All mutation goes
// through the store so its invariants (unique monotonic ids, at most one
// selected layer, lock rules) hold everywhere.
type Store struct {
	mu       sync.RWMutex
	layers   []Layer
	nextID   ID
	selected ID // 0 = nothing selected
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Add appends the layer to the top of the stack, assigns its id, and
// returns it.
func (s *Store) Add(l Layer) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := l.Meta()
	b.ID = s.nextID
	s.nextID++
	s.layers = append(s.layers, l)
	return b.ID
}

// Remove deletes the layer. A removed layer that was selected leaves the
// selection empty.
func (s *Store) Remove(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	if s.selected == id {
		s.selected = 0
	}
	return true
}

// duplicateOffset keeps a duplicated layer from landing exactly on its
// original.
const duplicateOffset = 10

// Duplicate inserts a copy of the layer directly above the original and
// returns the copy's id. The copy starts unlocked and slightly offset.
// Bitmaps and image sources are shared: both are immutable once handed
// to the store.
func (s *Store) Duplicate(id ID) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return 0, fmt.Errorf("layer %d not found", id)
	}
	var dup Layer
	switch l := s.layers[idx].(type) {
	case *Image:
		c := *l
		dup = &c
	case *Text:
		c := *l
		dup = &c
	default:
		return 0, fmt.Errorf("layer %d: unknown kind", id)
	}
	b := dup.Meta()
	b.ID = s.nextID
	s.nextID++
	b.Name += " copy"
	b.Locked = false
	b.X += duplicateOffset
	b.Y += duplicateOffset
	s.layers = append(s.layers[:idx+1], append([]Layer{dup}, s.layers[idx+1:]...)...)
	return b.ID, nil
}

// Reset drops every layer and the selection. Ids keep counting up so a
// reset never resurrects an old id.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
	s.selected = 0
}

// Len returns the number of layers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Layers returns a bottom-to-top snapshot of the stack.
func (s *Store) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Layer returns the layer with the given id, or nil.
func (s *Store) Layer(id ID) Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.layers[idx]
	}
	return nil
}

// Image returns the image layer with the given id.
func (s *Store) Image(id ID) (*Image, bool) {
	img, ok := s.Layer(id).(*Image)
	return img, ok
}

// Text returns the text layer with the given id.
func (s *Store) Text(id ID) (*Text, bool) {
	txt, ok := s.Layer(id).(*Text)
	return txt, ok
}

// IndexOf returns the z-order index of the layer, or -1.
func (s *Store) IndexOf(id ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

func (s *Store) indexOf(id ID) int {
	for i, l := range s.layers {
		if l.Meta().ID == id {
			return i
		}
	}
	return -1
}

// Move shifts the layer by delta z-order positions (positive = towards the
// top). Locked layers are excluded from reordering.
func (s *Store) Move(id ID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("layer %d not found", id)
	}
	if s.layers[idx].Meta().Locked {
		return fmt.Errorf("layer %d is locked", id)
	}
	target := idx + delta
	if target < 0 {
		target = 0
	}
	if target >= len(s.layers) {
		target = len(s.layers) - 1
	}
	if target == idx {
		return nil
	}
	l := s.layers[idx]
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	s.layers = append(s.layers[:target], append([]Layer{l}, s.layers[target:]...)...)
	return nil
}

// Select makes the layer the selection target. Selecting 0 clears the
// selection; selecting a locked layer is refused.
func (s *Store) Select(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		s.selected = 0
		return nil
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("layer %d not found", id)
	}
	if s.layers[idx].Meta().Locked {
		return fmt.Errorf("layer %d is locked", id)
	}
	s.selected = id
	return nil
}

// Selected returns the selected layer id, or 0.
func (s *Store) Selected() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectedLayer returns the selected layer, or nil.
func (s *Store) SelectedLayer() Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == 0 {
		return nil
	}
	if idx := s.indexOf(s.selected); idx >= 0 {
		return s.layers[idx]
	}
	return nil
}

// SetVisible toggles layer visibility.
func (s *Store) SetVisible(id ID, visible bool) {
	s.mutate(id, func(b *Base) { b.Visible = visible })
}

// SetLocked toggles the lock. Locking the selected layer clears the
// selection so a locked layer can never be the in-place edit target.
func (s *Store) SetLocked(id ID, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.layers[idx].Meta().Locked = locked
	if locked && s.selected == id {
		s.selected = 0
	}
}

// SetName renames the layer.
func (s *Store) SetName(id ID, name string) {
	s.mutate(id, func(b *Base) { b.Name = name })
}

// SetPosition moves the layer's top-left corner.
func (s *Store) SetPosition(id ID, x, y float64) {
	s.mutate(id, func(b *Base) { b.X, b.Y = x, y })
}

// Nudge shifts the layer's position by a delta. Locked layers are refused.
func (s *Store) Nudge(id ID, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("layer %d not found", id)
	}
	b := s.layers[idx].Meta()
	if b.Locked {
		return fmt.Errorf("layer %d is locked", id)
	}
	b.X += dx
	b.Y += dy
	return nil
}

// SetRotation sets the rotation in degrees about the layer centre.
func (s *Store) SetRotation(id ID, degrees float64) {
	s.mutate(id, func(b *Base) { b.Rotation = degrees })
}

// SetOpacity sets the layer opacity, clamped to [0,1].
func (s *Store) SetOpacity(id ID, opacity float64) {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	s.mutate(id, func(b *Base) { b.Opacity = opacity })
}

// SetSize sets the layer's placement dimensions. The bitmap is regenerated
// by the next pipeline run, not here.
func (s *Store) SetSize(id ID, width, height float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.mutate(id, func(b *Base) { b.Width, b.Height = width, height })
}

// SetBitmap replaces the layer's current bitmap. The slot is owned by the
// store and swapped whole; callers must not mutate a bitmap once handed in.
func (s *Store) SetBitmap(id ID, bm *raster.Bitmap) {
	s.mutate(id, func(b *Base) { b.Bitmap = bm })
}

// SetParams replaces an image layer's dither parameters (clamped).
func (s *Store) SetParams(id ID, p dither.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		if img, ok := s.layers[idx].(*Image); ok {
			img.Params = p.Clamped()
		}
	}
}

// Params returns an image layer's current dither parameters.
func (s *Store) Params(id ID) (dither.Params, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		if img, ok := s.layers[idx].(*Image); ok {
			return img.Params, true
		}
	}
	return dither.Params{}, false
}

func (s *Store) mutate(id ID, fn func(*Base)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		fn(s.layers[idx].Meta())
	}
}
