package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewTracerProvider_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := NewTracerProvider(TracingConfig{ServiceName: "hydralsp-test"}, sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "analyze")
	span.SetAttributes(attribute.Int("targets", 3))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "analyze" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" && kv.Value.AsString() == "hydralsp-test" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name resource attribute")
	}
}

func TestInitTracing_RequiresEndpoint(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{}); err == nil {
		t.Fatal("expected error without endpoint")
	}
}
