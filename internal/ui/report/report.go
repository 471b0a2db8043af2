package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"hydralsp/internal/engine/diagnostics"
	"hydralsp/internal/ui/report/formats"
)

type Document = formats.Document

// Options controls rendering. Root makes paths relative; Color enables ANSI
// styling in the text format.
type Options struct {
	Format  string
	Root    string
	Version string
	Color   bool
	Now     func() time.Time
}

// Report is the JSON shape of a whole run.
type Report struct {
	Version   string              `json:"version"`
	Generated time.Time           `json:"generated_at"`
	Summary   diagnostics.Summary `json:"summary"`
	Documents []jsonDocument      `json:"documents"`
}

type jsonDocument struct {
	Path     string        `json:"path"`
	Targets  int           `json:"targets"`
	Findings []jsonFinding `json:"findings"`
}

type jsonFinding struct {
	diagnostics.Finding
	Severity string `json:"severity"`
}

// Render writes docs in the requested format. Documents are ordered by path.
func Render(w io.Writer, docs []Document, opts Options) error {
	sorted := append([]Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case "", "text":
		_, err = io.WriteString(w, RenderText(sorted, opts))
		return err
	case "json":
		data, err = renderJSON(sorted, opts, now().UTC())
	case "sarif":
		data, err = formats.GenerateSARIF(opts.Root, opts.Version, sorted)
	case "markdown":
		data = []byte(formats.NewMarkdownGenerator().Generate(sorted, formats.MarkdownReportOptions{
			ProjectRoot: opts.Root,
			Version:     opts.Version,
			GeneratedAt: now().UTC(),
		}))
	case "tsv":
		data = []byte(formats.GenerateTSV(opts.Root, sorted))
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// Total sums the findings of every document.
func Total(docs []Document) diagnostics.Summary {
	var total diagnostics.Summary
	for _, doc := range docs {
		s := diagnostics.Summarize(doc.Findings)
		total.Errors += s.Errors
		total.Hints += s.Hints
		total.Infos += s.Infos
	}
	return total
}

func renderJSON(docs []Document, opts Options, generated time.Time) ([]byte, error) {
	out := Report{
		Version:   opts.Version,
		Generated: generated,
		Summary:   Total(docs),
		Documents: make([]jsonDocument, 0, len(docs)),
	}
	for _, doc := range docs {
		jd := jsonDocument{
			Path:     displayPath(opts.Root, doc.Path),
			Targets:  doc.Targets,
			Findings: make([]jsonFinding, 0, len(doc.Findings)),
		}
		for _, f := range doc.Findings {
			jd.Findings = append(jd.Findings, jsonFinding{Finding: f, Severity: f.Severity.String()})
		}
		out.Documents = append(out.Documents, jd)
	}
	return json.MarshalIndent(out, "", "  ")
}
