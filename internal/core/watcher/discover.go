package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands doublestar patterns relative to root and returns the
// matching files that pass the filter, sorted and deduplicated. Absolute
// patterns are globbed as given.
func Discover(root string, patterns []string, filter *Filter) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if seen[path] || !filter.Admits(root, path) {
			return
		}
		seen[path] = true
		out = append(out, path)
	}

	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(filepath.Clean(m))
			}
			continue
		}

		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
			if d.IsDir() {
				if filter.ExcludeDir(p) {
					return doublestar.SkipDir
				}
				return nil
			}
			add(filepath.Join(root, filepath.FromSlash(p)))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// inExcludedDir reports whether any directory between root and path is excluded.
func inExcludedDir(root, path string, filter *Filter) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if filter.ExcludeDir(part) {
			return true
		}
	}
	return false
}
