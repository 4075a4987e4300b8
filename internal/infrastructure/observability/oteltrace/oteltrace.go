package oteltrace

import (
	"context"

	"github.com/chowline/chowline/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a Tracer backed by the globally registered otel provider.
// Without an SDK tracer provider installed the spans are no-ops, which is
// the intended default outside of instrumented deployments.
func New(name string) observability.Tracer {
	if name == "" {
		name = "chowline"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
