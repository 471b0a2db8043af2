package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolvedPaths holds the configured paths made absolute.
type ResolvedPaths struct {
	WorkspaceRoot string
	HistoryPath   string
	OutputPath    string
	WatchPaths    []string
	ExtraPaths    []string
}

// ResolvePaths anchors relative paths: the workspace root against base, and
// everything else against the workspace root.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	root := ResolveRelative(base, cfg.WorkspaceRoot)

	resolved := ResolvedPaths{
		WorkspaceRoot: root,
		HistoryPath:   ResolveRelative(root, cfg.History.Path),
	}
	if strings.TrimSpace(cfg.Output.Path) != "" {
		resolved.OutputPath = ResolveRelative(root, cfg.Output.Path)
	}
	for _, p := range cfg.Watch.Paths {
		resolved.WatchPaths = append(resolved.WatchPaths, ResolveRelative(root, p))
	}
	for _, p := range cfg.Python.ExtraPaths {
		resolved.ExtraPaths = append(resolved.ExtraPaths, ResolveRelative(root, p))
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// configPatterns are tried in each directory, in order.
var configPatterns = []string{
	FileName,
	".hydralsp/" + FileName,
	".config/" + FileName,
}

// FindConfig walks upward from start and returns the first configuration
// file found, or "" when none exists up to the filesystem root.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		fsys := os.DirFS(dir)
		for _, pattern := range configPatterns {
			matches, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				return "", err
			}
			for _, m := range matches {
				path := filepath.Join(dir, filepath.FromSlash(m))
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return path, nil
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// DetectWorkspaceRoot returns the nearest ancestor of start holding a Python
// project marker, or start itself.
func DetectWorkspaceRoot(start string) (string, error) {
	markers := []string{
		FileName,
		"pyproject.toml",
		"setup.py",
		"setup.cfg",
		".git",
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	root := abs
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
				return filepath.Clean(root), nil
			}
		}
		parent := filepath.Dir(root)
		if parent == root {
			return filepath.Clean(abs), nil
		}
		root = parent
	}
}

// LoadOrDefault loads path when set, otherwise the config found above dir,
// otherwise the defaults. Env overrides are applied in every case. The
// returned path is "" when no file was used.
func LoadOrDefault(path, dir string) (*Config, string, error) {
	if strings.TrimSpace(path) == "" {
		found, err := FindConfig(dir)
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}
	ApplyEnvOverrides(cfg)
	return cfg, path, nil
}
