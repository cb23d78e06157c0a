package printer

import (
	"context"
	"fmt"
	"sync"

	"labelpress/internal/raster"
)

// Preview is a loopback Client that captures print jobs instead of sending
// them anywhere. The headless renderer and the tests use it to observe
// exactly what a real transport would receive.
type Preview struct {
	mu     sync.Mutex
	status Status
	events chan Event
	jobs   []*raster.Bitmap
	frames [][]byte
}

// NewPreview creates a disconnected loopback client.
func NewPreview() *Preview {
	return &Preview{events: make(chan Event, 16)}
}

// Connect marks the client connected.
func (p *Preview) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.setStatus(StatusConnected, EventConnected)
	return nil
}

// Disconnect marks the client disconnected.
func (p *Preview) Disconnect() error {
	p.setStatus(StatusDisconnected, EventDisconnected)
	return nil
}

// Print frames the raster and records both the bitmap and the wire bytes.
func (p *Preview) Print(ctx context.Context, bm *raster.Bitmap, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.status != StatusConnected {
		p.mu.Unlock()
		return fmt.Errorf("printer: not connected")
	}
	p.mu.Unlock()

	frame, err := Frame(bm, opts)
	if err != nil {
		p.emit(Event{Type: EventError, Status: p.Status(), Err: err})
		return err
	}

	p.setStatus(StatusPrinting, EventStateChange)
	p.mu.Lock()
	p.jobs = append(p.jobs, bm.Clone())
	p.frames = append(p.frames, frame)
	p.mu.Unlock()
	p.setStatus(StatusConnected, EventStateChange)
	return nil
}

// Status returns the current transport state.
func (p *Preview) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Events returns the event stream.
func (p *Preview) Events() <-chan Event {
	return p.events
}

// Dispose disconnects and closes the event stream.
func (p *Preview) Dispose() error {
	p.mu.Lock()
	p.status = StatusDisconnected
	p.mu.Unlock()
	close(p.events)
	return nil
}

// Jobs returns the captured rasters in print order.
func (p *Preview) Jobs() []*raster.Bitmap {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*raster.Bitmap, len(p.jobs))
	copy(out, p.jobs)
	return out
}

// Frames returns the captured wire bytes in print order.
func (p *Preview) Frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.frames))
	copy(out, p.frames)
	return out
}

func (p *Preview) setStatus(st Status, ev EventType) {
	p.mu.Lock()
	p.status = st
	p.mu.Unlock()
	p.emit(Event{Type: ev, Status: st})
}

func (p *Preview) emit(ev Event) {
	select {
	case p.events <- ev:
	default: // slow consumer, drop rather than block the editor
	}
}
