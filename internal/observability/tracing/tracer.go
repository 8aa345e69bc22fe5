package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mext-feed"

// GetTracer returns the tracer for creating spans.
//
// The tracer is looked up on every call so a provider installed after package
// init is honored.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "feed.fetch")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartFeedSpan starts a span for processing one feed.
func StartFeedSpan(ctx context.Context, feedID, url string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "feed.process",
		trace.WithAttributes(
			attribute.String("feed.id", feedID),
			attribute.String("feed.url", url),
		),
	)
}

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
