package workflow

import "sync"

// frameStream adapts frame-by-frame decode results into the barcode
// reader's live-stream contract.
type frameStream struct {
	mu     sync.Mutex
	fns    map[int]func(string)
	nextID int
}

func newFrameStream() *frameStream {
	return &frameStream{fns: make(map[int]func(string))}
}

// Attach registers a callback and returns its detach function.
func (f *frameStream) Attach(fn func(string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.fns[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.fns, id)
	}
}

// emit delivers one decoded text candidate to every attached callback.
func (f *frameStream) emit(text string) {
	f.mu.Lock()
	fns := make([]func(string), 0, len(f.fns))
	for _, fn := range f.fns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(text)
	}
}
