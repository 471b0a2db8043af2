package diagnostics

import "testing"

func TestSort_ByLineThenColumn(t *testing.T) {
	findings := []Finding{
		{Line: 3, StartCol: 4, Message: "c"},
		{Line: 1, StartCol: 9, Message: "b"},
		{Line: 1, StartCol: 2, Message: "a"},
		{Line: 3, StartCol: 4, Message: "d"},
	}
	Sort(findings)

	want := []string{"a", "b", "c", "d"}
	for i, w := range want {
		if findings[i].Message != w {
			t.Fatalf("position %d = %s, want %s", i, findings[i].Message, w)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Finding{
		{Severity: SeverityError},
		{Severity: SeverityHint},
		{Severity: SeverityError},
		{Severity: SeverityInfo},
	})
	if s.Errors != 2 || s.Hints != 1 || s.Infos != 1 || s.Total() != 4 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestCodes_Described(t *testing.T) {
	for _, c := range Codes {
		if c.Describe() == string(c) {
			t.Errorf("code %s has no description", c)
		}
	}
}

func TestClosestName(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
		ok         bool
	}{
		{"lrr", []string{"params", "lr", "momentum"}, "lr", true},
		{"epochz", []string{"model", "epochs"}, "epochs", true},
		{"banana", []string{"params", "lr"}, "", false},
		{"x", nil, "", false},
	}
	for _, tt := range tests {
		got, ok := closestName(tt.name, tt.candidates)
		if got != tt.want || ok != tt.ok {
			t.Errorf("closestName(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
