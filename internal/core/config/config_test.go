package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	content := `
workspace_root = "src"
include = ["conf/**/*.yaml"]

[python]
interpreter = "/opt/py/bin/python3"
extra_paths = ["vendor"]

[exclude]
dirs = [".git"]
files = ["*.tmp.yaml"]

[watch]
debounce = "1s"

[analysis]
workers = 3
rate_limit = 20.0
suggestions = false

[output]
format = "SARIF"
path = "out/findings.sarif"

[history]
enabled = true

[observability]
enabled = true
enable_metrics = true
port = 9000
`
	cfg, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.WorkspaceRoot != "src" || cfg.Python.Interpreter != "/opt/py/bin/python3" {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "conf/**/*.yaml" {
		t.Errorf("Include = %v", cfg.Include)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Watch.Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Analysis.Workers != 3 || cfg.Analysis.RateBurst != 3 || cfg.Analysis.SuggestionsEnabled() {
		t.Errorf("unexpected analysis config: %+v", cfg.Analysis)
	}
	if cfg.Output.Format != "sarif" {
		t.Errorf("Output.Format = %q, want normalized sarif", cfg.Output.Format)
	}
	if !cfg.History.Enabled || cfg.History.Path != ".hydralsp/history.db" {
		t.Errorf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Observability.Port != 9000 || cfg.Observability.ServiceName != "hydralsp" {
		t.Errorf("unexpected observability config: %+v", cfg.Observability)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 || cfg.WorkspaceRoot != "." || cfg.Output.Format != "text" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Analysis.Workers < 1 || cfg.Analysis.CacheEntries != 512 || !cfg.Analysis.SuggestionsEnabled() {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if len(cfg.Watch.Extensions) != 4 || len(cfg.Include) != 2 {
		t.Errorf("unexpected watch defaults: %+v / %v", cfg.Watch, cfg.Include)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad format", "[output]\nformat = \"xml\"\n", "output.format"},
		{"bad version", "version = 3\n", "unsupported config version"},
		{"negative rate", "[analysis]\nrate_limit = -1.0\n", "rate_limit"},
		{"extension without dot", "[watch]\nextensions = [\"yaml\"]\n", "watch.extensions"},
		{"tracing without endpoint", "[observability]\nenabled = true\nenable_tracing = true\n", "otlp_endpoint"},
		{"sample ratio", "[observability]\nsample_ratio = 2.0\n", "sample_ratio"},
		{"unknown key", "[analysis]\nworkerz = 2\n", "unknown config key"},
		{"syntax", "[analysis\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HYDRALSP_ANALYSIS_WORKERS", "7")
	t.Setenv("HYDRALSP_OUTPUT_FORMAT", "json")
	t.Setenv("HYDRALSP_HISTORY_ENABLED", "TRUE")
	t.Setenv("HYDRALSP_WATCH_DEBOUNCE", "2s")
	t.Setenv("HYDRALSP_ANALYSIS_SUGGESTIONS", "false")
	t.Setenv("HYDRALSP_OBSERVABILITY_PORT", "not-a-number")
	t.Setenv("HYDRALSP_PYTHON_EXTRA_PATHS", "a"+string(os.PathListSeparator)+" "+string(os.PathListSeparator)+"b")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Analysis.Workers != 7 || cfg.Output.Format != "json" || !cfg.History.Enabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Watch.Debounce != 2*time.Second || cfg.Analysis.SuggestionsEnabled() {
		t.Errorf("overrides not applied: %+v %+v", cfg.Watch, cfg.Analysis)
	}
	if cfg.Observability.Port != 9464 {
		t.Errorf("invalid integer should be ignored, got port %d", cfg.Observability.Port)
	}
	if len(cfg.Python.ExtraPaths) != 2 || cfg.Python.ExtraPaths[1] != "b" {
		t.Errorf("ExtraPaths = %v", cfg.Python.ExtraPaths)
	}
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.WorkspaceRoot = "proj"
	cfg.Output.Path = "out/report.json"
	cfg.Python.ExtraPaths = []string{"/abs/lib", "vendor"}

	got, err := ResolvePaths(cfg, base)
	if err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(base, "proj")
	if got.WorkspaceRoot != root {
		t.Errorf("WorkspaceRoot = %s", got.WorkspaceRoot)
	}
	if got.HistoryPath != filepath.Join(root, ".hydralsp", "history.db") {
		t.Errorf("HistoryPath = %s", got.HistoryPath)
	}
	if got.OutputPath != filepath.Join(root, "out", "report.json") {
		t.Errorf("OutputPath = %s", got.OutputPath)
	}
	if len(got.ExtraPaths) != 2 || got.ExtraPaths[0] != filepath.Clean("/abs/lib") || got.ExtraPaths[1] != filepath.Join(root, "vendor") {
		t.Errorf("ExtraPaths = %v", got.ExtraPaths)
	}
	if _, err := ResolvePaths(cfg, " "); err == nil {
		t.Error("expected error for empty base")
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindConfig(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" && strings.HasPrefix(got, root) {
		t.Fatalf("unexpected config found: %s", got)
	}

	hidden := filepath.Join(root, "a", ".hydralsp", FileName)
	writeFile(t, hidden, "")
	if got, _ := FindConfig(nested); got != hidden {
		t.Errorf("FindConfig = %s, want %s", got, hidden)
	}

	direct := filepath.Join(root, "a", FileName)
	writeFile(t, direct, "")
	if got, _ := FindConfig(nested); got != direct {
		t.Errorf("FindConfig = %s, want %s", got, direct)
	}
}

func TestDetectWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "")
	nested := filepath.Join(root, "conf", "model")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DetectWorkspaceRoot(filepath.Join(nested, "x.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("DetectWorkspaceRoot = %s, want %s", got, root)
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := LoadOrDefault("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected defaults, got %+v", cfg.Output)
	}
	if path != "" && strings.HasPrefix(path, dir) {
		t.Errorf("unexpected config path %s", path)
	}

	file := filepath.Join(dir, FileName)
	writeFile(t, file, "[output]\nformat = \"json\"\n")
	cfg, path, err = LoadOrDefault("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != file || cfg.Output.Format != "json" {
		t.Errorf("got %s / %+v", path, cfg.Output)
	}

	if _, _, err := LoadOrDefault(filepath.Join(dir, "missing.toml"), dir); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
