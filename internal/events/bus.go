// Package events is a small typed publish/subscribe bus that loosely
// couples the barcode, image, extraction, and persistence components.
package events

import "sync"

// Type enumerates the event variants the application announces.
type Type string

const (
	ExtractionCompleted Type = "extraction_completed"
	SaveCompleted       Type = "save_completed"
	BarcodeScanned      Type = "barcode_scanned"
	DuplicateFound      Type = "duplicate_found"
	ImagesCleared       Type = "images_cleared"
)

// Event carries the variant, the capture session it belongs to, and an
// optional payload.
type Event struct {
	Type      Type
	CaptureID string
	Payload   any
}

// Bus dispatches events synchronously to subscribers. Subscribe is
// expected at construction time; Publish may run from any goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]func(Event)
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[Type][]func(Event))}
}

// Subscribe registers fn for events of type t.
func (b *Bus) Subscribe(t Type, fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], fn)
}

// Publish delivers e to every subscriber of its type, in subscription
// order, on the calling goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := b.subscribers[e.Type]
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
