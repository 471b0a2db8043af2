package formats

import (
	"fmt"
	"strings"
	"time"

	"hydralsp/internal/engine/diagnostics"
)

type MarkdownReportOptions struct {
	ProjectRoot string
	Version     string
	GeneratedAt time.Time
	// HideClean leaves out documents without findings.
	HideClean bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(docs []Document, opts MarkdownReportOptions) string {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	var total diagnostics.Summary
	targets := 0
	for _, doc := range docs {
		s := diagnostics.Summarize(doc.Findings)
		total.Errors += s.Errors
		total.Hints += s.Hints
		total.Infos += s.Infos
		targets += doc.Targets
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Hydra Target Report\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Hydra Target Report\n\n")
	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Documents | %d |\n", len(docs)))
	b.WriteString(fmt.Sprintf("| Targets | %d |\n", targets))
	b.WriteString(fmt.Sprintf("| Errors | %d |\n", total.Errors))
	b.WriteString(fmt.Sprintf("| Hints | %d |\n\n", total.Hints))

	for _, doc := range docs {
		if opts.HideClean && len(doc.Findings) == 0 {
			continue
		}
		b.WriteString("## " + relativeURI(opts.ProjectRoot, doc.Path) + "\n\n")
		if len(doc.Findings) == 0 {
			b.WriteString("No findings.\n\n")
			continue
		}
		b.WriteString("| Line | Severity | Code | Message |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, f := range doc.Findings {
			b.WriteString(fmt.Sprintf("| %d | %s | `%s` | %s |\n", f.Line+1, f.Severity, f.Code, markdownEscape(f.Message)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func markdownEscape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
