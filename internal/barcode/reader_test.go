package barcode

import "testing"

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"upc-a", "036000291452", true},
		{"ean-13", "4006381333931", true},
		{"too short", "12345678901", false},
		{"too long", "12345678901234", false},
		{"letters", "03600029145X", false},
		{"embedded space", "036000 91452", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCode(tt.code); got != tt.valid {
				t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

// fakeStream counts attached callbacks so tests can assert that Start
// and Stop balance registrations.
type fakeStream struct {
	callbacks map[int]func(string)
	nextID    int
}

func newFakeStream() *fakeStream {
	return &fakeStream{callbacks: make(map[int]func(string))}
}

func (s *fakeStream) Attach(fn func(string)) func() {
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	return func() { delete(s.callbacks, id) }
}

func (s *fakeStream) emit(text string) {
	for _, fn := range s.callbacks {
		fn(text)
	}
}

func TestReaderBuffersMostRecentValidCode(t *testing.T) {
	stream := newFakeStream()
	reader := NewReader()
	reader.Start(stream)

	stream.emit("garbage")
	stream.emit("036000291452")
	stream.emit("not-a-code")
	stream.emit("4006381333931")

	code, ok := reader.CaptureAndStop()
	if !ok {
		t.Fatal("Expected a captured code")
	}
	if code != "4006381333931" {
		t.Errorf("Expected most recent valid code, got %q", code)
	}
	if reader.Running() {
		t.Error("Reader should be stopped after CaptureAndStop")
	}
}

func TestReaderDoubleStartDoesNotAccumulateCallbacks(t *testing.T) {
	stream := newFakeStream()
	reader := NewReader()

	reader.Start(stream)
	reader.Start(stream)

	if len(stream.callbacks) != 1 {
		t.Fatalf("Expected exactly 1 registered callback after double start, got %d", len(stream.callbacks))
	}

	reader.Stop()
	if len(stream.callbacks) != 0 {
		t.Fatalf("Expected 0 registered callbacks after stop, got %d", len(stream.callbacks))
	}
}

func TestCaptureAndStopWithEmptyBuffer(t *testing.T) {
	stream := newFakeStream()
	reader := NewReader()
	reader.Start(stream)

	stream.emit("junk")

	code, ok := reader.CaptureAndStop()
	if ok || code != "" {
		t.Errorf("Expected no capture, got %q (ok=%v)", code, ok)
	}
}
