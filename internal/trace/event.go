package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope задаёт гранулярность события: чем меньше значение, тем крупнее событие.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // CLI command, whole run
	ScopePass                    // lex, parse, type-pass, property-pass, conformance, materialize
	ScopeFile                    // one input file
	ScopeNode                    // one declaration
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeFile:
		return "file"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event is a single trace record. Time and Seq are stamped by the tracer
// when left zero.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	GID      uint64
	Name     string // "parse", "file:Sources/Prefs.swift"
	Detail   string
	Extra    map[string]string
}

func (ev *Event) stamp() {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}
}
