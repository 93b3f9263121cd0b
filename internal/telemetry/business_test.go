package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newRecordedTracer wires a BusinessTracer to an in-memory span recorder so
// tests can inspect what lands on the spans.
func newRecordedTracer(t *testing.T) (*BusinessTracer, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	return &BusinessTracer{tracer: provider.Tracer("macrobeta/business")}, recorder
}

func attributeMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, attr := range attrs {
		m[attr.Key] = attr.Value
	}
	return m
}

func TestNewBusinessTracer(t *testing.T) {
	bt := NewBusinessTracer()
	require.NotNil(t, bt)
	require.NotNil(t, bt.tracer)

	// Without a global provider the spans are no-ops but still usable.
	_, span := bt.TraceBetaComputation(context.Background(), "ACME", "revenue", "CPIAUCSL")
	require.NotNil(t, span)
	span.End()
}

func TestTraceBetaComputation_RecordsAttributes(t *testing.T) {
	bt, recorder := newRecordedTracer(t)

	_, span := bt.TraceBetaComputation(context.Background(), "ACME", "revenue", "CPIAUCSL")
	bt.RecordRegressionOutcome(span, 1.42, 0.82, 0.013, 12)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "beta_computation", ended[0].Name())

	attrs := attributeMap(ended[0].Attributes())
	assert.Equal(t, "ACME", attrs["symbol"].AsString())
	assert.Equal(t, "revenue", attrs["kpi"].AsString())
	assert.Equal(t, "CPIAUCSL", attrs["macro_series"].AsString())
	assert.InDelta(t, 1.42, attrs["regression.beta"].AsFloat64(), 1e-12)
	assert.InDelta(t, 0.82, attrs["regression.r2"].AsFloat64(), 1e-12)
	assert.InDelta(t, 0.013, attrs["regression.p_value"].AsFloat64(), 1e-12)
	assert.Equal(t, int64(12), attrs["regression.observations"].AsInt64())
}

func TestTraceIngestion_RecordsRowCount(t *testing.T) {
	bt, recorder := newRecordedTracer(t)

	_, span := bt.TraceIngestion(context.Background(), "macro", "EFFR")
	bt.RecordIngestionOutcome(span, 128, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ingestion", ended[0].Name())

	attrs := attributeMap(ended[0].Attributes())
	assert.Equal(t, "macro", attrs["ingest.kind"].AsString())
	assert.Equal(t, "EFFR", attrs["ingest.identifier"].AsString())
	assert.Equal(t, int64(128), attrs["ingest.rows"].AsInt64())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestRecordIngestionOutcome_Error(t *testing.T) {
	bt, recorder := newRecordedTracer(t)

	_, span := bt.TraceIngestion(context.Background(), "company", "ACME")
	bt.RecordIngestionOutcome(span, 0, errors.New("connection refused"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "ingestion failed", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)

	attrs := attributeMap(ended[0].Attributes())
	_, hasRows := attrs["ingest.rows"]
	assert.False(t, hasRows)
}
