package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"mtf-trading-bot/internal/trace"
)

var (
	// Global logger instance, nil until Init
	globalLogger *slog.Logger
	// Whether detailed logging is enabled
	detailedLogging bool
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or text
	DetailedLogging bool   // Enable debug records and caller source
	TracingEnabled  bool   // Enable OpenTelemetry tracing
}

// Init initializes the global logger and tracer based on environment variables
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
		TracingEnabled:  getEnvOrDefault("LOG_TRACING_ENABLED", "false") == "true",
	}
}

// InitWithConfig initializes the logger and tracer with specific configuration
func InitWithConfig(config LogConfig) error {
	detailedLogging = config.DetailedLogging

	// Source is added manually in logWithTrace to get the right caller
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(config.Level),
		AddSource: false,
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if config.TracingEnabled {
		if err := trace.InitWithOptions(trace.Options{Enabled: true}); err != nil {
			globalLogger.Warn("Failed to initialize OpenTelemetry tracer, tracing disabled", "error", err)
		}
	}
	return nil
}

// Shutdown flushes pending spans
func Shutdown(ctx context.Context) error {
	return trace.Shutdown(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func base() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Debug logs a debug message when detailed logging is on
func Debug(ctx context.Context, msg string, args ...any) {
	DebugSkip(ctx, 1, msg, args...)
}

// DebugSkip is Debug for middleware that should report its caller's frame
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, slog.LevelDebug, msg, skip+3, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 3, args...)
}

func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, skip+3, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 3, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, 3, args...)
}

func ErrorSkip(ctx context.Context, skip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, skip+3, args...)
}

// ErrorWithErr logs an error message and records the error on the active span
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	ErrorWithErrSkip(ctx, 1, msg, err, args...)
}

func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	if err != nil {
		span := oteltrace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, skip+3, allArgs...)
}

// logWithTrace adds trace ids and, in detailed mode, the caller source.
// skip counts frames from runtime.Caller to the caller being reported.
func logWithTrace(ctx context.Context, level slog.Level, msg string, skip int, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}

	if detailedLogging {
		if pc, file, line, ok := runtime.Caller(skip - 1); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	base().Log(ctx, level, msg, args...)
}

// OperationTimer measures an operation and carries its span
type OperationTimer struct {
	ctx    context.Context
	span   oteltrace.Span
	start  time.Time
	fields []any
}

// StartOperation starts timing an operation with an OpenTelemetry span
func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	ctx, span := trace.StartSpan(ctx, operation)
	if trace.Enabled() {
		span.SetAttributes(toAttributes(fields)...)
	}
	DebugSkip(ctx, 1, "Operation started", append([]any{"operation", operation}, fields...)...)

	return &OperationTimer{
		ctx:    ctx,
		span:   span,
		start:  time.Now(),
		fields: fields,
	}
}

func toAttributes(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}

// End completes the operation timer and logs the duration
func (ot *OperationTimer) End(additionalFields ...any) {
	duration := time.Since(ot.start)
	if trace.Enabled() {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		ot.span.SetAttributes(toAttributes(additionalFields)...)
		ot.span.SetStatus(codes.Ok, "completed")
	}
	ot.span.End()

	fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds())
	DebugSkip(ot.ctx, 1, "Operation completed", append(fields, additionalFields...)...)
}

// EndWithError completes the operation timer with an error
func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) {
	duration := time.Since(ot.start)
	if trace.Enabled() {
		ot.span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		ot.span.RecordError(err)
		ot.span.SetStatus(codes.Error, err.Error())
	}
	ot.span.End()

	fields := append(append([]any{}, ot.fields...), "duration_ms", duration.Milliseconds(), "error", err)
	ErrorSkip(ot.ctx, 1, "Operation failed", append(fields, additionalFields...)...)
}

// GetContext returns the context with the span
func (ot *OperationTimer) GetContext() context.Context {
	return ot.ctx
}

// Plan logs an emitted trade plan (always logged regardless of level)
func Plan(ctx context.Context, ticker, tradeType, direction string, confidence int, fields ...any) {
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("trade_plan", oteltrace.WithAttributes(
			attribute.String("ticker", ticker),
			attribute.String("trade_type", tradeType),
			attribute.String("direction", direction),
			attribute.Int("confidence", confidence),
		))
	}

	allFields := append([]any{
		"type", "PLAN",
		"ticker", ticker,
		"trade_type", tradeType,
		"direction", direction,
		"confidence", confidence,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "Trade plan emitted", 3, allFields...)
}

// NoPlan logs why a trade type produced no plan
func NoPlan(ctx context.Context, ticker, tradeType, reason string, fields ...any) {
	allFields := append([]any{
		"type", "SKIP",
		"ticker", ticker,
		"trade_type", tradeType,
		"reason", reason,
	}, fields...)
	DebugSkip(ctx, 1, "No plan produced", allFields...)
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return detailedLogging
}
