package session

import (
	"context"
	"time"

	"hydralsp/internal/engine/diagnostics"
	"hydralsp/internal/engine/targets"
	"hydralsp/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Analysis is the result of one full pass over a document.
type Analysis struct {
	URI     string
	Version int
	// Hydra is false for documents that are not Hydra configs; they carry no findings.
	Hydra bool
	// Document is nil when the text failed to parse.
	Document *targets.Document
	Findings []diagnostics.Finding
	Duration time.Duration
}

func (a Analysis) Summary() diagnostics.Summary {
	return diagnostics.Summarize(a.Findings)
}

// Analyzer runs parse and validation for one document at a time. It holds
// no per-run state and is safe for concurrent use.
type Analyzer struct {
	engine *diagnostics.Engine
	tracer trace.Tracer
}

func NewAnalyzer(engine *diagnostics.Engine) *Analyzer {
	return &Analyzer{engine: engine, tracer: observability.Tracer}
}

// WithTracer replaces the tracer used for analysis spans.
func (a *Analyzer) WithTracer(t trace.Tracer) *Analyzer {
	a.tracer = t
	return a
}

func (a *Analyzer) Engine() *diagnostics.Engine {
	return a.engine
}

func (a *Analyzer) Analyze(ctx context.Context, snap Snapshot) Analysis {
	ctx, span := a.tracer.Start(ctx, "analyzer.Analyze", trace.WithAttributes(
		attribute.String("document.uri", snap.URI),
		attribute.Int("document.version", snap.Version),
	))
	defer span.End()

	start := time.Now()
	out := Analysis{URI: snap.URI, Version: snap.Version}
	if !targets.IsHydraFile(snap.Text) {
		span.SetAttributes(attribute.Bool("document.hydra", false))
		out.Duration = time.Since(start)
		return out
	}
	out.Hydra = true

	doc, err := targets.Parse(snap.Text)
	observability.AnalysisDuration.WithLabelValues("parse").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failure")
		out.Findings = []diagnostics.Finding{diagnostics.ParseFailure(snap.Text, err)}
		out.Duration = time.Since(start)
		recordFindings(out.Findings)
		return out
	}
	out.Document = doc

	validateStart := time.Now()
	out.Findings = a.engine.Validate(ctx, doc)
	observability.AnalysisDuration.WithLabelValues("validate").Observe(time.Since(validateStart).Seconds())
	out.Duration = time.Since(start)

	summary := out.Summary()
	span.SetAttributes(
		attribute.Int("analysis.targets", doc.Arena.Len()),
		attribute.Int("analysis.errors", summary.Errors),
		attribute.Int("analysis.hints", summary.Hints),
	)
	recordFindings(out.Findings)
	return out
}

func recordFindings(findings []diagnostics.Finding) {
	for _, f := range findings {
		observability.FindingsTotal.WithLabelValues(f.Severity.String()).Inc()
	}
}
