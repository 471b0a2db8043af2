package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: HYDRALSP_[SECTION]_[KEY] (e.g., HYDRALSP_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.WorkspaceRoot, "HYDRALSP_WORKSPACE_ROOT")

	// Python
	setEnvString(&cfg.Python.Interpreter, "HYDRALSP_PYTHON_INTERPRETER")
	setEnvList(&cfg.Python.ExtraPaths, "HYDRALSP_PYTHON_EXTRA_PATHS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "HYDRALSP_WATCH_DEBOUNCE")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "HYDRALSP_ANALYSIS_WORKERS")
	setEnvFloat64(&cfg.Analysis.RateLimit, "HYDRALSP_ANALYSIS_RATE_LIMIT")
	setEnvInt(&cfg.Analysis.RateBurst, "HYDRALSP_ANALYSIS_RATE_BURST")
	setEnvInt(&cfg.Analysis.CacheEntries, "HYDRALSP_ANALYSIS_CACHE_ENTRIES")
	if val, ok := os.LookupEnv("HYDRALSP_ANALYSIS_SUGGESTIONS"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Info("applying env override", "key", "HYDRALSP_ANALYSIS_SUGGESTIONS", "value", val)
			cfg.Analysis.Suggestions = &b
		}
	}

	// Output
	setEnvString(&cfg.Output.Format, "HYDRALSP_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "HYDRALSP_OUTPUT_PATH")

	// History
	setEnvBool(&cfg.History.Enabled, "HYDRALSP_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "HYDRALSP_HISTORY_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "HYDRALSP_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "HYDRALSP_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "HYDRALSP_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "HYDRALSP_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "HYDRALSP_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Info("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits the value on the OS path list separator.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Info("applying env override", "key", key, "value", val)
		var out []string
		for _, part := range strings.Split(val, string(os.PathListSeparator)) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
