package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext identifies the innermost open span.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

type spanCtxKey struct{}

// CurrentSpan returns the active span of ctx, zero if none.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches sc to ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// Start opens a span under the current span of ctx and returns a context
// in which the new span is current. With tracing off ctx is returned as is.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	t := FromContext(ctx)
	span := Begin(t, scope, name, CurrentSpan(ctx).SpanID)
	if span.ID() == 0 {
		return span, ctx
	}
	return span, WithSpanContext(ctx, SpanContext{SpanID: span.ID(), GID: span.gid})
}

// Point emits an instant event under the current span of ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: CurrentSpan(ctx).SpanID,
		GID:      getGoroutineID(),
		Name:     name,
		Detail:   detail,
	})
}
