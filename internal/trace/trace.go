package trace

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "mtf-trading-bot"
	ServiceVersion = "1.0.0"
)

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

type Options struct {
	Enabled     bool
	PrettyPrint bool
	// SampleRatio is the fraction of root traces kept. Zero or above one keeps all.
	SampleRatio float64
}

// Init reads LOG_TRACING_ENABLED and LOG_TRACE_SAMPLE_RATIO and sets up the
// stdout exporter.
func Init() error {
	ratio, _ := strconv.ParseFloat(getEnv("LOG_TRACE_SAMPLE_RATIO", "1"), 64)
	return InitWithOptions(Options{
		Enabled:     getEnv("LOG_TRACING_ENABLED", "false") == "true",
		PrettyPrint: getEnv("LOG_FORMAT", "json") != "json",
		SampleRatio: ratio,
	})
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func InitWithOptions(opts Options) error {
	if !opts.Enabled || tracerProvider != nil {
		enabled = opts.Enabled && tracerProvider != nil
		return nil
	}

	var exOpts []stdouttrace.Option
	if opts.PrettyPrint {
		exOpts = append(exOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exOpts...)
	if err != nil {
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(ServiceName)
	enabled = true
	return nil
}

func Shutdown(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}
	return nil
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	return enabled
}

func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", "", false
	}
	return span.SpanContext().TraceID().String(),
		span.SpanContext().SpanID().String(),
		true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
