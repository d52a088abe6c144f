package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // ring buffer only, dumped on failure
	LevelPhase        // driver + passes
	LevelDetail       // + files
	LevelDebug        // + declarations
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
	}
}

// ShouldEmit reports whether events of scope pass this level. LevelError
// records everything into the ring so that a dump has context.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError, LevelDebug:
		return true
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeFile
	}
	return false
}
