package python

import (
	"fmt"
	"strings"

	"hydralsp/internal/core/errors"
)

// SplitTarget splits a dotted symbol path into its module path and symbol
// name. At least two non-empty components are required.
func SplitTarget(target string) (modulePath, symbol string, err error) {
	parts := strings.Split(target, ".")
	if len(parts) < 2 {
		return "", "", invalidTarget(target)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", "", invalidTarget(target)
		}
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], nil
}

func invalidTarget(target string) error {
	return (&errors.DomainError{
		Code:    errors.CodeInvalidTarget,
		Message: fmt.Sprintf("invalid target %q: expected module.path.SymbolName", target),
	}).WithContext(errors.CtxSymbol, target)
}
