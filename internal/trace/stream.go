package trace

import (
	"io"
	"sync"
	"time"
)

// StreamTracer writes every event to w as it arrives.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	start  time.Time
	depth  map[uint64]int // open span -> nesting depth
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{
		w:      w,
		level:  level,
		format: format,
		start:  time.Now(),
		depth:  make(map[uint64]int),
	}
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || (!t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat) {
		return
	}
	ev.stamp()

	t.mu.Lock()
	defer t.mu.Unlock()

	depth := 0
	if d, ok := t.depth[ev.ParentID]; ok && ev.ParentID != 0 {
		depth = d + 1
	}
	switch ev.Kind {
	case KindSpanBegin:
		t.depth[ev.SpanID] = depth
	case KindSpanEnd:
		if d, ok := t.depth[ev.SpanID]; ok {
			depth = d
			delete(t.depth, ev.SpanID)
		}
	}
	// ошибки записи трассы не должны ронять раскрытие
	_, _ = t.w.Write(FormatEvent(ev, t.format, t.start, depth))
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	if f, ok := t.w.(interface{ Sync() error }); ok {
		return f.Sync()
	}
	return nil
}

// Close flushes and closes w when it is an io.Closer.
func (t *StreamTracer) Close() error {
	_ = t.Flush()
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
