package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer accumulates per-phase durations of an expansion run. Files are
// expanded concurrently, so one phase name may be recorded many times;
// the report sums them.
type Timer struct {
	mu      sync.Mutex
	started time.Time
	order   []string
	phases  map[string]*phase
}

type phase struct {
	total time.Duration
	count int
	notes []string
}

// Mark is an open measurement returned by Begin.
type Mark struct {
	t     *Timer
	name  string
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{started: time.Now(), phases: make(map[string]*phase, 8)}
}

// Begin starts measuring name. A nil Timer yields an inert Mark.
func (t *Timer) Begin(name string) Mark {
	return Mark{t: t, name: name, start: time.Now()}
}

// End records the elapsed time of m; note is kept when non-empty.
func (m Mark) End(note string) time.Duration {
	d := time.Since(m.start)
	m.t.Add(m.name, d, note)
	return d
}

// Add records d against name.
func (t *Timer) Add(name string, d time.Duration, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.phases[name]
	if !ok {
		p = &phase{}
		t.phases[name] = p
		t.order = append(t.order, name)
	}
	p.total += d
	p.count++
	if note != "" {
		p.notes = append(p.notes, note)
	}
}

// PhaseReport is one aggregated phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Count      int     `json:"count"`
	Note       string  `json:"note,omitempty"`
}

// Report: сводка по фазам; WallMS считается от NewTimer, а не суммой фаз.
type Report struct {
	WallMS float64       `json:"wall_ms"`
	Phases []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r := Report{WallMS: millis(time.Since(t.started))}
	for _, name := range t.order {
		p := t.phases[name]
		r.Phases = append(r.Phases, PhaseReport{
			Name:       name,
			DurationMS: millis(p.total),
			Count:      p.count,
			Note:       strings.Join(p.notes, "; "),
		})
	}
	return r
}

// Summary renders the report for --timings.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-16s %9.2f ms  x%d", p.Name, p.DurationMS, p.Count)
		if p.Note != "" {
			sb.WriteString("  // ")
			sb.WriteString(p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-16s %9.2f ms\n", "wall", r.WallMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
