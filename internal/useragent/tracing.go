package useragent

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/frankli0324/go-useragent"

func defaultTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName, trace.WithInstrumentationVersion(Version))
}

func (a *UserAgent) startSpan(ctx context.Context, c *call) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "useragent.issue",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", c.method),
			attribute.String("url.full", c.url),
		))
}

func hopEvent(span trace.Span, retry, redirect int, method, url string, code int) {
	span.AddEvent("hop", trace.WithAttributes(
		attribute.Int("retry", retry),
		attribute.Int("redirect", redirect),
		attribute.String("http.request.method", method),
		attribute.String("url.full", url),
		attribute.Int("http.response.status_code", code),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
