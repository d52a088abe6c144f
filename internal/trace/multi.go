package trace

import "errors"

// MultiTracer forwards each event to all of its tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

func (t *MultiTracer) Emit(ev *Event) {
	if ev == nil {
		return
	}
	// одинаковые Seq/Time во всех приёмниках
	ev.stamp()
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// Ring returns the first ring tracer in the fan-out, if any.
func (t *MultiTracer) Ring() *RingTracer {
	for _, tr := range t.tracers {
		if r, ok := tr.(*RingTracer); ok {
			return r
		}
	}
	return nil
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }
