package config

import (
	"time"
)

// FileName is the configuration file looked up by FindConfig.
const FileName = "hydralsp.toml"

type Config struct {
	Version       int           `toml:"version"`
	WorkspaceRoot string        `toml:"workspace_root"`
	Python        Python        `toml:"python"`
	Include       []string      `toml:"include"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Analysis      Analysis      `toml:"analysis"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Python struct {
	// Interpreter is an explicit interpreter path; empty means discover.
	Interpreter string `toml:"interpreter"`
	// ExtraPaths are searched after the discovered site-packages.
	ExtraPaths []string `toml:"extra_paths"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Paths      []string      `toml:"paths"`
	Debounce   time.Duration `toml:"debounce"`
	Extensions []string      `toml:"extensions"`
}

type Analysis struct {
	Workers      int     `toml:"workers"`
	RateLimit    float64 `toml:"rate_limit"`
	RateBurst    int     `toml:"rate_burst"`
	CacheEntries int     `toml:"cache_entries"`
	Suggestions  *bool   `toml:"suggestions"`
}

// SuggestionsEnabled defaults to true when unset.
func (a Analysis) SuggestionsEnabled() bool {
	return a.Suggestions == nil || *a.Suggestions
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled       bool    `toml:"enabled"`
	Port          int     `toml:"port"`
	EnableMetrics bool    `toml:"enable_metrics"`
	EnableTracing bool    `toml:"enable_tracing"`
	OTLPEndpoint  string  `toml:"otlp_endpoint"`
	OTLPInsecure  bool    `toml:"otlp_insecure"`
	ServiceName   string  `toml:"service_name"`
	SampleRatio   float64 `toml:"sample_ratio"`
}

var (
	OutputFormats       = []string{"text", "json", "sarif", "markdown", "tsv"}
	DefaultExtensions   = []string{".yaml", ".yml", ".py", ".pyi"}
	DefaultExcludeDirs  = []string{".git", ".venv", "venv", "node_modules", "__pycache__", ".mypy_cache", "outputs", "multirun"}
	DefaultIncludeGlobs = []string{"**/*.yaml", "**/*.yml"}
)
