package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/inventory/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// installRecorder swaps the global tracer provider for one that records
// ended spans, restoring the previous provider on cleanup.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func endedSpan(t *testing.T, recorder *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := telemetry.StartSpan(context.Background(), "movement.execute",
		attribute.String(telemetry.SpanAttrMovementType, "ENTRY"),
		attribute.String(telemetry.SpanAttrQuantity, "10"),
	)
	require.NotNil(t, span)
	assert.Equal(t, span, trace.SpanFromContext(ctx))

	telemetry.FinishSpan(span, nil)

	got := endedSpan(t, recorder)
	assert.Equal(t, "movement.execute", got.Name())
	assert.Equal(t, trace.SpanKindInternal, got.SpanKind())
	assert.Equal(t, telemetry.TracerName, got.InstrumentationScope().Name)
	assert.Equal(t, codes.Unset, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(telemetry.SpanAttrMovementType, "ENTRY"))
}

func TestFinishSpan_RecordsError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "export.valuation")
	telemetry.FinishSpan(span, errors.New("bucket unavailable"))

	got := endedSpan(t, recorder)
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "bucket unavailable", got.Status().Description)

	require.NotEmpty(t, got.Events())
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestFinishSpan_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.FinishSpan(nil, errors.New("ignored"))
	})
}

func TestAddEvent(t *testing.T) {
	recorder := installRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "scheduler.expiry_scan")
	telemetry.AddEvent(span, "scan_counts",
		attribute.Int("expiring", 3),
		attribute.Int("expired", 1),
	)
	telemetry.AddEvent(nil, "dropped")
	telemetry.FinishSpan(span, nil)

	got := endedSpan(t, recorder)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "scan_counts", got.Events()[0].Name)
	assert.Contains(t, got.Events()[0].Attributes, attribute.Int("expiring", 3))
}

func TestTraceAndSpanIDs(t *testing.T) {
	installRecorder(t)

	assert.Empty(t, telemetry.TraceID(context.Background()))
	assert.Empty(t, telemetry.SpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "movement.authorize")
	defer telemetry.FinishSpan(span, nil)

	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.TraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.SpanID(ctx))
}

func TestSpanAttributeNames(t *testing.T) {
	assert.Equal(t, "movement_id", telemetry.SpanAttrMovementID)
	assert.Equal(t, "product_id", telemetry.SpanAttrProductID)
	assert.Equal(t, "warehouse_id", telemetry.SpanAttrWarehouseID)
	assert.Equal(t, "lot_number", telemetry.SpanAttrLotNumber)
	assert.Equal(t, "report_format", telemetry.SpanAttrReportFormat)
	assert.Equal(t, "object_key", telemetry.SpanAttrObjectKey)
}
