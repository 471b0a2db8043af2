package python

import (
	"testing"

	"hydralsp/internal/core/errors"
)

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		in, module, symbol string
	}{
		{"a.b", "a", "b"},
		{"torch.optim.Adam", "torch.optim", "Adam"},
		{"pkg.sub.mod.build_model", "pkg.sub.mod", "build_model"},
	}
	for _, tt := range tests {
		module, symbol, err := SplitTarget(tt.in)
		if err != nil {
			t.Fatalf("SplitTarget(%q): %v", tt.in, err)
		}
		if module != tt.module || symbol != tt.symbol {
			t.Errorf("SplitTarget(%q) = (%q, %q), want (%q, %q)", tt.in, module, symbol, tt.module, tt.symbol)
		}
	}
}

func TestSplitTarget_Invalid(t *testing.T) {
	for _, in := range []string{"", "Adam", "torch.", ".Adam", "a..b", "a. .b"} {
		if _, _, err := SplitTarget(in); !errors.IsCode(err, errors.CodeInvalidTarget) {
			t.Errorf("SplitTarget(%q): expected INVALID_TARGET, got %v", in, err)
		}
	}
}
