package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OTelHook forwards log entries to an OpenTelemetry collector so
// application logs land in the same backend as traces. Attach it with
// logger.AddHook when telemetry is enabled.
type OTelHook struct {
	logger   otellog.Logger
	provider *sdklog.LoggerProvider
}

// NewOTelHook builds the OTLP log pipeline. Endpoint is the host:port of
// the collector's HTTP listener.
func NewOTelHook(ctx context.Context, serviceName, environment, endpoint string) (*OTelHook, error) {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &OTelHook{
		logger:   provider.Logger(serviceName),
		provider: provider,
	}, nil
}

// Levels implements logrus.Hook.
func (h *OTelHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *OTelHook) Fire(entry *logrus.Entry) error {
	record := otellog.Record{}
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(severityFor(entry.Level))
	record.SetBody(otellog.StringValue(entry.Message))

	attrs := make([]otellog.KeyValue, 0, len(entry.Data))
	for key, value := range entry.Data {
		attrs = append(attrs, otellog.String(key, fmt.Sprint(value)))
	}
	record.AddAttributes(attrs...)

	// Entries logged through WithContext carry the active span, which
	// links the record to its trace.
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	h.logger.Emit(ctx, record)

	return nil
}

// Shutdown flushes buffered records.
func (h *OTelHook) Shutdown(ctx context.Context) error {
	return h.provider.Shutdown(ctx)
}

func severityFor(level logrus.Level) otellog.Severity {
	switch level {
	case logrus.TraceLevel:
		return otellog.SeverityTrace
	case logrus.DebugLevel:
		return otellog.SeverityDebug
	case logrus.InfoLevel:
		return otellog.SeverityInfo
	case logrus.WarnLevel:
		return otellog.SeverityWarn
	case logrus.ErrorLevel:
		return otellog.SeverityError
	case logrus.FatalLevel, logrus.PanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}
