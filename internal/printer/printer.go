// Package printer defines the boundary to the thermal printer transport.
// The editor's only obligation toward it is to hand over a composited
// 1-bit raster identical to the on-screen preview; pairing, job transport,
// and status polling live behind the Client interface.
package printer

import (
	"context"

	"labelpress/internal/raster"
)

// HeadWidth is the printable width of the target print head in pixels.
const HeadWidth = 384

// Status describes the transport state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusPrinting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusPrinting:
		return "printing"
	default:
		return "disconnected"
	}
}

// EventType identifies transport events.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventStateChange
	EventError
)

// Event is a transport notification.
type Event struct {
	Type   EventType
	Status Status
	Err    error
}

// Options configures a print job.
type Options struct {
	FeedLines int // paper feed after the raster
	Density   int // darkness 0-100, transport-specific mapping
}

// Client is the printer transport collaborator.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Print(ctx context.Context, bm *raster.Bitmap, opts Options) error
	Status() Status
	Events() <-chan Event
	Dispose() error
}
