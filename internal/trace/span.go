package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span id. Zero is never returned.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// getGoroutineID parses "goroutine N [...]" from runtime.Stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b, ok := bytes.CutPrefix(b, []byte("goroutine "))
	if !ok {
		return 0
	}
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span is an open begin/end pair. A disabled span is safe to use.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	started  time.Time
	extra    map[string]string
}

// Begin emits a begin event and returns the span; parent 0 means root.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      getGoroutineID(),
		scope:    scope,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
	})
	return s
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	now := time.Now()
	s.tracer.Emit(&Event{
		Time:     now,
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
