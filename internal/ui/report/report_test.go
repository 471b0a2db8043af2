package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"hydralsp/internal/engine/diagnostics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs() []Document {
	return []Document{
		{
			Path:    "/ws/conf/z.yaml",
			Targets: 1,
			Findings: []diagnostics.Finding{
				{Line: 0, StartCol: 9, EndCol: 18, Severity: diagnostics.SeverityError, Code: diagnostics.CodeInvalidTarget, Message: "Invalid _target_ format: 'nodots'. Expected format: 'module.path.SymbolName'"},
			},
		},
		{
			Path:    "/ws/conf/a.yaml",
			Targets: 2,
			Findings: []diagnostics.Finding{
				{Line: 3, StartCol: 2, EndCol: 7, Severity: diagnostics.SeverityHint, Code: diagnostics.CodePassedViaKwargs, Message: "Parameter 'extra' will be passed via **kwargs"},
			},
		},
		{Path: "/ws/conf/ok.yaml", Targets: 1},
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, docs(), Options{Format: "text", Root: "/ws"}))

	out := buf.String()
	assert.Contains(t, out, "conf/z.yaml:1:10: error Invalid _target_ format: 'nodots'")
	assert.Contains(t, out, "[invalid-target]")
	assert.Contains(t, out, "conf/a.yaml:4:3: hint Parameter 'extra' will be passed via **kwargs")
	assert.NotContains(t, out, "ok.yaml")
	assert.Contains(t, out, "3 documents, 4 targets: 1 errors, 1 hints")
	assert.Less(t, strings.Index(out, "conf/a.yaml"), strings.Index(out, "conf/z.yaml"), "documents sorted by path")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry ANSI codes")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	fixed := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	require.NoError(t, Render(&buf, docs(), Options{Format: "json", Root: "/ws", Version: "dev", Now: func() time.Time { return fixed }}))

	var decoded struct {
		Version   string    `json:"version"`
		Generated time.Time `json:"generated_at"`
		Summary   struct {
			Errors int `json:"errors"`
			Hints  int `json:"hints"`
		} `json:"summary"`
		Documents []struct {
			Path     string `json:"path"`
			Findings []struct {
				Line     int    `json:"line"`
				Code     string `json:"code"`
				Severity string `json:"severity"`
			} `json:"findings"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "dev", decoded.Version)
	assert.True(t, decoded.Generated.Equal(fixed))
	assert.Equal(t, 1, decoded.Summary.Errors)
	assert.Equal(t, 1, decoded.Summary.Hints)
	require.Len(t, decoded.Documents, 3)
	assert.Equal(t, "conf/a.yaml", decoded.Documents[0].Path)
	require.Len(t, decoded.Documents[2].Findings, 1)
	assert.Equal(t, "invalid-target", decoded.Documents[2].Findings[0].Code)
	assert.Equal(t, "error", decoded.Documents[2].Findings[0].Severity)
}

func TestRenderOtherFormats(t *testing.T) {
	for _, format := range []string{"sarif", "markdown", "tsv"} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, docs(), Options{Format: format, Root: "/ws"}), format)
		assert.Contains(t, buf.String(), "conf/z.yaml", format)
		assert.True(t, strings.HasSuffix(buf.String(), "\n"), format)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, nil, Options{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "conf/a.yaml", displayPath("/ws", "/ws/conf/a.yaml"))
	assert.Equal(t, "/elsewhere/a.yaml", displayPath("/ws", "/elsewhere/a.yaml"))
	assert.Equal(t, "rel/a.yaml", displayPath("/ws", "rel/a.yaml"))
}
