package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupRecorder 使用内存exporter替换全局TracerProvider
func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	rec := setupRecorder(t)

	ctx, span := StartSpan(context.Background(), "checkout", "Settle", attribute.Int64("user.id", 7))
	assert.NotEmpty(t, ExtractTraceID(ctx))
	assert.NotEmpty(t, ExtractSpanID(ctx))
	EndSpan(span, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Settle", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("user.id", 7))
}

func TestEndSpan_RecordsError(t *testing.T) {
	rec := setupRecorder(t)

	_, span := StartSpan(context.Background(), "checkout", "Cancel")
	EndSpan(span, errors.New("积分不足"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "积分不足", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestChildSpanSharesTraceID(t *testing.T) {
	setupRecorder(t)

	parentCtx, parent := StartSpan(context.Background(), "checkout", "Settle")
	childCtx, child := StartSpan(parentCtx, "checkout", "saga")
	defer parent.End()
	defer child.End()

	assert.Equal(t, ExtractTraceID(parentCtx), ExtractTraceID(childCtx))
	assert.NotEqual(t, ExtractSpanID(parentCtx), ExtractSpanID(childCtx))
}

func TestExtractTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))
	assert.Empty(t, ExtractSpanID(context.Background()))
}
