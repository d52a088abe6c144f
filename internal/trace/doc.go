// Package trace records what the expansion pipeline is doing.
//
// There is no global logger: a Tracer travels in the context and every
// driver phase opens a span on it.
//
//	prefmacro expand --trace=- --trace-level=phase Sources/
//
// Implementations:
//
//   - Nop: tracing disabled
//   - StreamTracer: writes each event as it happens
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fan-out
//
// Levels: off, error, phase (driver and passes), detail (+ files),
// debug (+ individual declarations).
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopePass, "parse")
//	defer span.End("")
package trace
