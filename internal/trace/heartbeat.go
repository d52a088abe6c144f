package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic events so that a stalled run is visible in a
// trace: heartbeats keep coming while no span ends.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	done     sync.WaitGroup
}

// StartHeartbeat returns nil when tracing is off or interval <= 0.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: t, interval: interval, stop: make(chan struct{})}
	h.done.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.done.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.tracer.Emit(&Event{
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			})
		}
	}
}

// Stop ends the goroutine and waits for it. Safe on nil and repeated calls.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
}
