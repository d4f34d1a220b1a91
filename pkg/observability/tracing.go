package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/plaenen/cmscore/pkg/domain"
)

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(ErrorAttrs(err)...)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// SetSpanError records err on the span in ctx.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Attribute keys shared by spans and logs.
var (
	AttrSiteID        = attribute.Key("cms.site.id")
	AttrCommandType   = attribute.Key("cms.command.type")
	AttrAggregateType = attribute.Key("cms.aggregate.type")
	AttrAggregateID   = attribute.Key("cms.aggregate.id")
	AttrEventType     = attribute.Key("cms.event.type")
	AttrEventID       = attribute.Key("cms.event.id")
	AttrEventCount    = attribute.Key("cms.event.count")
	AttrErrorKind     = attribute.Key("cms.error.kind")
)

// CommandAttrs describes cmd. Site commands also carry their site id.
func CommandAttrs(cmd domain.Command) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrCommandType.String(cmd.CommandType())}
	if sc, ok := cmd.(domain.SiteCommand); ok {
		attrs = append(attrs, AttrSiteID.String(sc.Site().String()))
	}
	return attrs
}

// EventAttrs describes e.
func EventAttrs(e domain.Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEventType.String(e.Type()),
		AttrEventID.String(e.ID),
		AttrAggregateType.String(e.AggregateType),
		AttrAggregateID.String(e.AggregateID.String()),
		AttrSiteID.String(e.SiteID.String()),
	}
}

// ErrorAttrs classifies err.
func ErrorAttrs(err error) []attribute.KeyValue {
	return []attribute.KeyValue{AttrErrorKind.String(ErrorKind(err))}
}
