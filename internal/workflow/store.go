package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rackline/labelscan/internal/barcode"
)

// CaptureStore keeps the live capture sessions in memory, keyed by id.
// Everything here is tab-scoped state; nothing survives a restart.
type CaptureStore struct {
	mu       sync.RWMutex
	captures map[string]*Capture
}

// NewCaptureStore returns an empty store.
func NewCaptureStore() *CaptureStore {
	return &CaptureStore{captures: make(map[string]*Capture)}
}

// New creates and registers a fresh capture session.
func (s *CaptureStore) New(debounceDelay time.Duration) *Capture {
	c := &Capture{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		stream:    newFrameStream(),
		reader:    barcode.NewReader(),
		debounce:  newDebouncer(debounceDelay),
	}
	c.form.Quantity = "1"

	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures[c.ID] = c
	return c
}

// Get returns the capture with the given id.
func (s *CaptureStore) Get(id string) (*Capture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.captures[id]
	return c, ok
}

// Delete removes a capture session.
func (s *CaptureStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.captures, id)
}
