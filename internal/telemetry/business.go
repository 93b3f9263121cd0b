package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer provides spans for domain operations: beta fits and
// ingestion runs. HTTP middleware covers the request level; services use
// this for the work inside.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a tracer against the global provider. Safe to
// construct before telemetry.Init; spans are no-ops until a provider is
// installed.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: otel.Tracer("macrobeta/business")}
}

// TraceBetaComputation starts a span covering a full beta pipeline run,
// from fact loading through regression and interpretation.
func (bt *BusinessTracer) TraceBetaComputation(ctx context.Context, symbol, kpi, seriesID string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "beta_computation", trace.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kpi", kpi),
		attribute.String("macro_series", seriesID),
	))
}

// RecordRegressionOutcome attaches fit statistics to a beta span.
func (bt *BusinessTracer) RecordRegressionOutcome(span trace.Span, beta, r2, pValue float64, observations int) {
	span.SetAttributes(
		attribute.Float64("regression.beta", beta),
		attribute.Float64("regression.r2", r2),
		attribute.Float64("regression.p_value", pValue),
		attribute.Int("regression.observations", observations),
	)
}

// TraceIngestion starts a span covering an ingestion run. Kind is
// "company" or "macro"; identifier is the symbol or series ID.
func (bt *BusinessTracer) TraceIngestion(ctx context.Context, kind, identifier string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "ingestion", trace.WithAttributes(
		attribute.String("ingest.kind", kind),
		attribute.String("ingest.identifier", identifier),
	))
}

// RecordIngestionOutcome attaches the stored row count to an ingestion
// span, or marks it failed.
func (bt *BusinessTracer) RecordIngestionOutcome(span trace.Span, stored int64, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")
		return
	}
	span.SetAttributes(attribute.Int64("ingest.rows", stored))
}
