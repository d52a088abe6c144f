// Package prof captures Go runtime profiles of a single CLI run.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the output files; empty paths are skipped.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.Trace != ""
}

// Session holds the files opened by Start until Stop.
type Session struct {
	mem       string
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins CPU profiling and execution tracing as requested. The heap
// profile is written by Stop.
func Start(opts Options) (*Session, error) {
	s := &Session{mem: opts.Mem}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			_ = s.Stop()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			_ = s.Stop()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the active profiles, writes the heap profile and closes every
// file. It is safe to call more than once.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	if s.mem != "" {
		errs = append(errs, writeHeap(s.mem))
		s.mem = ""
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
