package barcode

import "sync"

// Stream delivers decoded text candidates from a live camera feed. The
// returned detach function unregisters the callback; Attach must never
// be called twice without detaching in between.
type Stream interface {
	Attach(fn func(text string)) (detach func())
}

// Reader buffers the most recent accepted code from a Stream. Only
// strings that pass IsValidCode are accepted.
type Reader struct {
	mu      sync.Mutex
	detach  func()
	last    string
	running bool
}

// NewReader returns a stopped Reader with an empty buffer.
func NewReader() *Reader {
	return &Reader{}
}

// Start begins observing the stream. Any previously registered callback
// is detached first, so calling Start twice never accumulates callbacks.
func (r *Reader) Start(s Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
	r.detach = s.Attach(r.observe)
	r.running = true
}

// Stop unregisters the detection callback. The buffered code survives a
// stop so a capture can still read it.
func (r *Reader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Reader) stopLocked() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
	r.running = false
}

// CaptureAndStop copies out the buffered code and stops the reader.
// ok is false when nothing valid has been observed.
func (r *Reader) CaptureAndStop() (code string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = r.last
	r.stopLocked()
	return code, code != ""
}

// Running reports whether a stream callback is currently registered.
func (r *Reader) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reader) observe(text string) {
	if !IsValidCode(text) {
		return
	}
	r.mu.Lock()
	r.last = text
	r.mu.Unlock()
}
