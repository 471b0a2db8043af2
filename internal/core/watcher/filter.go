package watcher

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileKind classifies a watched file.
type FileKind int

const (
	KindOther FileKind = iota
	KindDocument
	KindPython
)

func (k FileKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindPython:
		return "python"
	}
	return "other"
}

// Classify maps a path to its kind by extension.
func Classify(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindDocument
	case ".py", ".pyi":
		return KindPython
	}
	return KindOther
}

// Filter decides which directories are walked and which files are reported.
// Exclude patterns are gobwas globs matched against the base name.
type Filter struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   map[string]bool
}

func NewFilter(excludeDirs, excludeFiles, extensions []string) (*Filter, error) {
	dirs, err := compileAll(excludeDirs)
	if err != nil {
		return nil, err
	}
	files, err := compileAll(excludeFiles)
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		exts[normalized] = true
	}
	return &Filter{excludeDirs: dirs, excludeFiles: files, extensions: exts}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *Filter) ExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range f.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// ExcludeFile reports whether path has an unwatched extension or matches an
// exclude pattern. An empty extension set admits every extension.
func (f *Filter) ExcludeFile(path string) bool {
	base := filepath.Base(path)
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(base))] {
		return true
	}
	for _, g := range f.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Admits reports whether path under root passes both the file rules and the
// directory rules of every ancestor up to root.
func (f *Filter) Admits(root, path string) bool {
	return !f.ExcludeFile(path) && !inExcludedDir(root, path, f)
}
