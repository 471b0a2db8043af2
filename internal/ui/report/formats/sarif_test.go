package formats

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"hydralsp/internal/engine/diagnostics"
)

func sampleDocs() []Document {
	return []Document{
		{
			Path:    "/project/conf/train.yaml",
			Targets: 2,
			Findings: []diagnostics.Finding{
				{Line: 2, StartCol: 9, EndCol: 21, Severity: diagnostics.SeverityError, Code: diagnostics.CodeModuleNotFound, Message: "Cannot resolve module 'nope': module not found"},
				{Line: 5, StartCol: 2, EndCol: 7, Severity: diagnostics.SeverityHint, Code: diagnostics.CodePassedViaKwargs, Message: "Parameter 'extra' will be passed via **kwargs"},
			},
		},
		{Path: "/project/conf/clean.yaml", Targets: 1},
	}
}

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	data, err := GenerateSARIF("", "dev", nil)
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", report.Schema, sarifSchema)
	}
	if report.Version != sarifVersion {
		t.Errorf("version = %q, want %q", report.Version, sarifVersion)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(report.Runs[0].Results))
	}
	if len(report.Runs[0].Tool.Driver.Rules) != 0 {
		t.Errorf("expected no rules without findings")
	}
}

func TestGenerateSARIF_FindingsAndRules(t *testing.T) {
	data, err := GenerateSARIF("/project", "1.2.3", sampleDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	run := report.Runs[0]
	if run.Tool.Driver.Name != "hydralsp" || run.Tool.Driver.Version != "1.2.3" {
		t.Errorf("unexpected driver: %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected one rule per code, got %d", len(run.Tool.Driver.Rules))
	}
	if run.Tool.Driver.Rules[0].ID != "module-not-found" || run.Tool.Driver.Rules[0].Name != "ModuleNotFound" {
		t.Errorf("unexpected first rule: %+v", run.Tool.Driver.Rules[0])
	}

	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	r := run.Results[0]
	if r.Level != "error" {
		t.Errorf("level = %q, want error", r.Level)
	}
	if run.Results[1].Level != "note" {
		t.Errorf("hint level = %q, want note", run.Results[1].Level)
	}
	loc := r.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "conf/train.yaml" {
		t.Errorf("uri = %q, want relative path", loc.ArtifactLocation.URI)
	}
	if strings.HasPrefix(loc.ArtifactLocation.URI, "/") {
		t.Errorf("absolute path leaked into SARIF")
	}
	if loc.Region.StartLine != 3 || loc.Region.StartColumn != 10 || loc.Region.EndColumn != 22 {
		t.Errorf("region not converted to 1-based: %+v", loc.Region)
	}
}

func TestRuleName(t *testing.T) {
	cases := map[diagnostics.Code]string{
		diagnostics.CodeParseError:      "ParseError",
		diagnostics.CodePassedViaKwargs: "PassedViaKwargs",
	}
	for code, want := range cases {
		if got := ruleName(code); got != want {
			t.Errorf("ruleName(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestGenerateTSV(t *testing.T) {
	out := GenerateTSV("/project", sampleDocs())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d: %q", len(lines), out)
	}
	want := "conf/train.yaml\t3\t10\t22\terror\tmodule-not-found\tCannot resolve module 'nope': module not found"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
	if tsvEscape("a\tb\nc") != "a b c" {
		t.Fatalf("tsv escape failed")
	}
}

func TestMarkdownGenerator(t *testing.T) {
	md := NewMarkdownGenerator().Generate(sampleDocs(), MarkdownReportOptions{
		ProjectRoot: "/project",
		Version:     "dev",
		GeneratedAt: time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC),
	})
	for _, want := range []string{
		"generated_at: 2026-02-13T10:00:00Z",
		"| Targets | 3 |",
		"| Errors | 1 |",
		"## conf/train.yaml",
		"| 3 | error | `module-not-found` |",
		"## conf/clean.yaml\n\nNo findings.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}

	hidden := NewMarkdownGenerator().Generate(sampleDocs(), MarkdownReportOptions{HideClean: true})
	if strings.Contains(hidden, "clean.yaml") {
		t.Errorf("expected clean document to be hidden")
	}
	if !strings.Contains(hidden, "version: unknown") {
		t.Errorf("expected version fallback")
	}
	if markdownEscape("a|b") != `a\|b` {
		t.Errorf("pipe not escaped")
	}
}
