package targets

import (
	"testing"
)

func TestCompletionContext(t *testing.T) {
	text := "model:\n  _target_: pkg.Model\n  hidden: 12\n  \nother: 1\n"
	doc := mustParse(t, text)

	tests := []struct {
		name      string
		line, col int
		kind      ContextKind
		partial   string
		target    string
		parameter string
	}{
		{"target value", 1, 15, ContextTargetValue, "pkg", "", ""},
		{"empty target value", 1, 11, ContextTargetValue, "", "", ""},
		{"parameter key", 2, 5, ContextParameterKey, "hid", "pkg.Model", ""},
		{"parameter value", 2, 11, ContextParameterValue, "1", "pkg.Model", "hidden"},
		{"blank line in block", 3, 2, ContextParameterKey, "", "pkg.Model", ""},
		{"outside any target", 0, 3, ContextUnknown, "", "", ""},
		{"top level key", 4, 3, ContextUnknown, "", "", ""},
		{"line out of range", 42, 0, ContextUnknown, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doc.CompletionContext(tt.line, tt.col)
			if got.Kind != tt.kind {
				t.Fatalf("expected %s, got %s (%+v)", tt.kind, got.Kind, got)
			}
			if got.Partial != tt.partial {
				t.Errorf("expected partial %q, got %q", tt.partial, got.Partial)
			}
			if got.Target != tt.target {
				t.Errorf("expected target %q, got %q", tt.target, got.Target)
			}
			if got.Parameter != tt.parameter {
				t.Errorf("expected parameter %q, got %q", tt.parameter, got.Parameter)
			}
		})
	}
}

func TestCompletionContextSequenceItem(t *testing.T) {
	doc := mustParse(t, "callbacks:\n  - _target_: pkg.A\n    verbose: true\n")
	got := doc.CompletionContext(2, 8)
	if got.Kind != ContextParameterKey || got.Target != "pkg.A" || got.Partial != "verb" {
		t.Fatalf("unexpected context %+v", got)
	}
}
