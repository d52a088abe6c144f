package trace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Format is the encoding of written events.
type Format uint8

const (
	FormatAuto   Format = iota // by output file extension
	FormatText                 // human readable
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
	}
}

// FormatEvent encodes ev. Text output shows time relative to base and
// indents by depth.
func FormatEvent(ev *Event, format Format, base time.Time, depth int) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev, base, depth)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Time:     ev.Time.UTC().Format(time.RFC3339Nano),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// [  12.345ms]   → parse (Prefs.swift) {decls=3}
func formatText(ev *Event, base time.Time, depth int) []byte {
	var sb strings.Builder
	var elapsed time.Duration
	if !base.IsZero() {
		elapsed = ev.Time.Sub(base)
	}
	fmt.Fprintf(&sb, "[%9.3fms] ", float64(elapsed.Microseconds())/1000)
	sb.WriteString(strings.Repeat("  ", max(depth, 0)))
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	case KindHeartbeat:
		sb.WriteString("♡ ")
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteByte(')')
	}
	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
