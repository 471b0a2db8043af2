package formats

import (
	"path/filepath"

	"hydralsp/internal/engine/diagnostics"
)

// Document is the analysis result of one config file as the renderers see it.
type Document struct {
	Path     string                `json:"path"`
	Targets  int                   `json:"targets"`
	Findings []diagnostics.Finding `json:"findings"`
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
