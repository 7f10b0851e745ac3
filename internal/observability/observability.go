// Package observability defines the hooks the state store reports through:
// a metrics recorder for operation outcomes and a tracer for spans.
package observability

import (
	"context"
	"time"
)

// MetricsRecorder receives one observation per state-store operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around state-store operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a span, recording the terminal error if any.
type TraceSpan interface {
	End(err error)
}

// NopMetricsRecorder discards all observations.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// NopTracer produces spans that do nothing.
type NopTracer struct{}

func (NopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End(error) {}
