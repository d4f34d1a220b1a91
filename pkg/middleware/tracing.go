package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/observability"
)

// Tracing adds OpenTelemetry spans to command execution using the global
// tracer provider.
func Tracing(tracerName string) commandbus.Middleware {
	if tracerName == "" {
		tracerName = observability.InstrumentationName
	}
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer creates tracing middleware with a specific tracer.
func TracingWithTracer(tracer trace.Tracer) commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			spanCtx, span := tracer.Start(ctx, "command."+cmd.CommandType(),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(observability.CommandAttrs(cmd)...),
			)

			events, err := next.Handle(spanCtx, cmd)

			span.SetAttributes(observability.AttrEventCount.Int(len(events)))
			if len(events) > 0 {
				types := make([]string, len(events))
				for i, e := range events {
					types[i] = e.Type()
				}
				span.SetAttributes(attribute.StringSlice("cms.event.types", types))
			}

			observability.EndSpan(span, err)
			return events, err
		})
	}
}
