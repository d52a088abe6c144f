package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prefmacro/internal/trace"
)

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context. The returned cleanup flushes and closes it; when the run
// failed and the tracer keeps a ring, the ring is dumped to stderr.
func setupTracing(cmd *cobra.Command) (func(failed bool), error) {
	pf := cmd.Root().PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	}
	if traceOutput == "" || traceOutput == "-" {
		cfg.Output = nopWriteCloser{stderr}
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func(failed bool) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if ring := trace.RingOf(tracer); ring != nil && failed {
			fmt.Fprintln(stderr, "trace: last events before failure:")
			if err := ring.Dump(stderr, format); err != nil {
				fmt.Fprintf(stderr, "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(stderr, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(stderr, "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// nopWriteCloser keeps tracer.Close from closing the command's stderr.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
