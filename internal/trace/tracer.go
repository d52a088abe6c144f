package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Tracer receives trace events. Implementations must be goroutine-safe:
// the driver expands files in parallel.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a flag value to a StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeRing, fmt.Errorf("invalid trace mode: %q (expected: stream|ring|both)", s)
	}
}

// Config describes a tracer built by New.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // wins over OutputPath
	OutputPath string    // "-" or "" is stderr
	RingSize   int       // 4096 when zero
	Heartbeat  time.Duration
}

const defaultRingSize = 4096

// New builds a Tracer from cfg. LevelOff always yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	format := cfg.Format
	if format == FormatAuto {
		format = formatForPath(cfg.OutputPath)
	}

	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, format)
		if cfg.Mode == ModeStream {
			return stream, nil
		}
		return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, fmt.Errorf("unknown trace mode: %v", cfg.Mode)
	}
}

func formatForPath(path string) Format {
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// nopCloser keeps Close from closing stderr.
type nopCloser struct{ io.Writer }
