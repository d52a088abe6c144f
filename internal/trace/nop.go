package trace

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards everything.
var Nop Tracer = nopTracer{}

// RingOf returns the ring buffer behind t, or nil.
func RingOf(t Tracer) *RingTracer {
	switch v := t.(type) {
	case *RingTracer:
		return v
	case *MultiTracer:
		return v.Ring()
	}
	return nil
}
