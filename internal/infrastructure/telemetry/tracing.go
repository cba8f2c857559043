package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans opened through the helpers in this file.
const TracerName = "inventory-service"

// StartSpan opens an internal span on the global tracer provider. The
// caller must end it, usually with FinishSpan so errors are recorded:
//
//	ctx, span := telemetry.StartSpan(ctx, "movement.execute")
//	defer func() { telemetry.FinishSpan(span, err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, opts...)
}

// FinishSpan ends the span. A non-nil err is recorded and flips the span
// status to error; otherwise the status is left unset.
func FinishSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddEvent attaches a timestamped annotation to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// TraceID returns the trace ID of the span in ctx, or "" without one.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the span ID of the span in ctx, or "" without one.
func SpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.SpanID().IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// Span attribute keys shared by the service-level spans. Metric labels
// live in metrics.go as attribute.Key values with the same names.
const (
	SpanAttrMovementID   = "movement_id"
	SpanAttrMovementType = "movement_type"
	SpanAttrProductID    = "product_id"
	SpanAttrWarehouseID  = "warehouse_id"
	SpanAttrLotNumber    = "lot_number"
	SpanAttrQuantity     = "quantity"
	SpanAttrReportFormat = "report_format"
	SpanAttrObjectKey    = "object_key"
)
