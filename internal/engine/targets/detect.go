package targets

import (
	"strings"
)

const hydraMarkerLines = 10

// IsHydraFile reports whether text looks like a Hydra configuration: either a
// `# @hydra` / `# hydra:` marker comment near the top, or any `_target_` key.
func IsHydraFile(text string) bool {
	lines := strings.SplitN(text, "\n", hydraMarkerLines+1)
	if len(lines) > hydraMarkerLines {
		lines = lines[:hydraMarkerLines]
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# @hydra") || strings.HasPrefix(trimmed, "# hydra:") {
			return true
		}
	}
	return strings.Contains(text, TargetKey)
}
