package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"hydralsp/internal/engine/diagnostics"

	"github.com/charmbracelet/lipgloss"
)

var (
	pathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Faint(true)
)

type palette struct {
	path, err, hint, ok, code lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{path: plain, err: plain, hint: plain, ok: plain, code: plain}
	}
	return palette{path: pathStyle, err: errorStyle, hint: hintStyle, ok: successStyle, code: codeStyle}
}

// RenderText renders findings as "path:line:col: severity message [code]" grouped
// per document, followed by a one-line total.
func RenderText(docs []Document, opts Options) string {
	p := newPalette(opts.Color)
	var b strings.Builder

	targets := 0
	for _, doc := range docs {
		targets += doc.Targets
		if len(doc.Findings) == 0 {
			continue
		}
		path := displayPath(opts.Root, doc.Path)
		b.WriteString(p.path.Render(path) + "\n")
		for _, f := range doc.Findings {
			sev := f.Severity.String()
			switch f.Severity {
			case diagnostics.SeverityError:
				sev = p.err.Render(sev)
			case diagnostics.SeverityHint:
				sev = p.hint.Render(sev)
			}
			b.WriteString(fmt.Sprintf("  %s:%d:%d: %s %s %s\n",
				path, f.Line+1, f.StartCol+1, sev, f.Message, p.code.Render("["+string(f.Code)+"]")))
		}
	}

	total := Total(docs)
	line := fmt.Sprintf("%d documents, %d targets: %d errors, %d hints", len(docs), targets, total.Errors, total.Hints)
	if total.Errors == 0 {
		b.WriteString(p.ok.Render(line) + "\n")
	} else {
		b.WriteString(p.err.Render(line) + "\n")
	}
	return b.String()
}

func displayPath(root, path string) string {
	if root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
