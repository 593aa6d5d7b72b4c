package widgetdata

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelObserver implements Observer using OpenTelemetry for traces and metrics.
//
// Example:
//
//	observer, _ := widgetdata.NewOTelObserver(otel.Tracer("sitewidgets"), otel.Meter("sitewidgets"))
type OTelObserver struct {
	tracer trace.Tracer

	resolveDuration metric.Float64Histogram
	outcomes        metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	cacheErrors     metric.Int64Counter
}

// NewOTelObserver creates an OpenTelemetry observer.
func NewOTelObserver(tracer trace.Tracer, meter metric.Meter) (*OTelObserver, error) {
	resolveDuration, err := meter.Float64Histogram(
		"sitewidgets.resolve.duration",
		metric.WithDescription("Duration of widget data resolution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve duration histogram: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		"sitewidgets.resolve.outcomes",
		metric.WithDescription("Widget data resolutions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outcomes counter: %w", err)
	}

	cacheHits, err := meter.Int64Counter(
		"sitewidgets.cache.hits",
		metric.WithDescription("Number of payload cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	cacheMisses, err := meter.Int64Counter(
		"sitewidgets.cache.misses",
		metric.WithDescription("Number of payload cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	cacheErrors, err := meter.Int64Counter(
		"sitewidgets.cache.errors",
		metric.WithDescription("Number of failed payload cache lookups"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache errors counter: %w", err)
	}

	return &OTelObserver{
		tracer:          tracer,
		resolveDuration: resolveDuration,
		outcomes:        outcomes,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheErrors:     cacheErrors,
	}, nil
}

func (o *OTelObserver) OnResolve(ctx context.Context, event *ResolveEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("widget", event.Widget),
		attribute.String("kind", string(event.Kind)),
		attribute.String("outcome", event.Outcome.String()),
	}

	// The resolution already happened; record it as a span with its real bounds.
	_, span := o.tracer.Start(ctx, "widgetdata.resolve",
		trace.WithTimestamp(event.StartTime),
		trace.WithAttributes(append(attrs,
			attribute.String("request_id", event.RequestID),
			attribute.String("site_id", event.SiteID),
			attribute.Bool("jetpack", event.IsJetpack),
		)...),
	)
	if event.SessionError != nil {
		span.RecordError(event.SessionError)
		span.SetStatus(codes.Error, event.SessionError.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(event.StartTime.Add(event.Duration)))

	o.outcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.resolveDuration.Record(ctx, event.Duration.Seconds(), metric.WithAttributes(attrs[:2]...))
}

func (o *OTelObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	attrs := metric.WithAttributes(attribute.String("kind", string(event.Kind)))
	switch {
	case event.Error != nil:
		o.cacheErrors.Add(ctx, 1, attrs)
	case event.Hit:
		o.cacheHits.Add(ctx, 1, attrs)
	default:
		o.cacheMisses.Add(ctx, 1, attrs)
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("cache_check", trace.WithAttributes(
			attribute.Bool("hit", event.Hit),
			attribute.String("site_id", event.SiteID),
		))
	}
}
