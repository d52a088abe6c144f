package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in a fixed circular buffer.
type RingTracer struct {
	mu     sync.RWMutex
	events []Event
	head   int
	full   bool
	level  Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || (!t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat) {
		return
	}
	ev.stamp()

	t.mu.Lock()
	t.events[t.head] = *ev
	t.head++
	if t.head == len(t.events) {
		t.head = 0
		t.full = true
	}
	t.mu.Unlock()
}

// Snapshot returns the stored events oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.full {
		return append([]Event(nil), t.events[:t.head]...)
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.head:]...)
	return append(out, t.events[:t.head]...)
}

// Dump writes the snapshot to w, replaying it through a stream tracer so
// that text output keeps the span nesting.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	if len(events) == 0 {
		return nil
	}
	st := NewStreamTracer(&errWriter{w: w}, LevelDebug, format)
	st.start = events[0].Time
	for i := range events {
		st.Emit(&events[i])
	}
	return st.w.(*errWriter).err
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

// errWriter remembers the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
