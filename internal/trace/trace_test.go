package trace

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDisabledTracingIsPassThrough(t *testing.T) {
	if err := InitWithOptions(Options{Enabled: false}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if Enabled() {
		t.Error("Expected tracing disabled")
	}
	ctx := context.Background()
	got, span := StartSpan(ctx, "noop")
	defer span.End()
	if got != ctx {
		t.Error("Expected the same context when tracing is disabled")
	}
	if _, _, ok := GetTraceFields(got); ok {
		t.Error("Expected no trace fields when tracing is disabled")
	}
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		0:    sdktrace.AlwaysSample().Description(),
		1:    sdktrace.AlwaysSample().Description(),
		1.5:  sdktrace.AlwaysSample().Description(),
		0.25: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description(),
	}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); got != want {
			t.Errorf("Expected %s for %v, got %s", want, ratio, got)
		}
	}
}
