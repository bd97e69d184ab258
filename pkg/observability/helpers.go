package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AddSpanAttributes adds attributes to the current span
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// RecordSpanError records an error on the current span
func RecordSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Common span attribute keys
var (
	AttrCatalogVersion = attribute.Key("catalog.version")
	AttrCatalogSize    = attribute.Key("catalog.size")
	AttrSourceName     = attribute.Key("source.document")
	AttrFilterSearch   = attribute.Key("filter.search")
	AttrFilterTypes    = attribute.Key("filter.types")
	AttrSortOrder      = attribute.Key("sort.order")
	AttrPage           = attribute.Key("page")
	AttrVisibleCount   = attribute.Key("result.visible_count")
)
