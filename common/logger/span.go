package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "forge"

// SpanContext pairs a span with the context that carries it. The generator
// opens one per request and one per attempt; the compiler opens one around
// each openscad run.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child of the span in ctx on the forge tracer. Log
// records written with sc.Context() pick up its trace and span ids.
//
//	sc := logger.StartSpan(ctx, "compiler.compile")
//	defer sc.End()
//	ctx = sc.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError attaches an upstream or infrastructure failure to the span.
// Compile diagnostics are expected outcomes and are not recorded here.
func (sc *SpanContext) RecordError(err error) {
	if sc.span != nil && err != nil {
		sc.span.RecordError(err)
	}
}

// Span exposes the span for late attributes such as the final attempt count.
func (sc *SpanContext) Span() trace.Span {
	return sc.span
}
