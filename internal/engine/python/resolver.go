package python

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hydralsp/internal/core/errors"
)

// ModuleResolver maps a dotted module path to a source file.
type ModuleResolver interface {
	Resolve(modulePath string) (string, error)
}

// Resolver searches the workspace root, the working directory and the
// environment's site-packages, in that order.
type Resolver struct {
	searchPaths []string
}

// NewResolver builds the ordered search path list. Empty entries are dropped
// and duplicates keep their first position.
func NewResolver(workspaceRoot string, sitePackages []string) *Resolver {
	candidates := make([]string, 0, len(sitePackages)+2)
	if strings.TrimSpace(workspaceRoot) != "" {
		candidates = append(candidates, workspaceRoot)
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, cwd)
	} else {
		candidates = append(candidates, ".")
	}
	candidates = append(candidates, sitePackages...)

	seen := make(map[string]bool, len(candidates))
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if abs, err := filepath.Abs(c); err == nil {
			c = abs
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		paths = append(paths, c)
	}
	return &Resolver{searchPaths: paths}
}

// NewResolverFromDiscovery resolves site-packages through d. Discovery
// failures are logged and resolution continues without them.
func NewResolverFromDiscovery(d Discovery) *Resolver {
	sitePackages, err := d.SitePackages()
	if err != nil {
		slog.Warn("python environment discovery failed", "error", err)
	}
	return NewResolver(d.WorkspaceRoot, sitePackages)
}

func (r *Resolver) SearchPaths() []string {
	return append([]string(nil), r.searchPaths...)
}

// Resolve returns the file implementing modulePath. Stub files win over
// implementation files at the same candidate location.
func (r *Resolver) Resolve(modulePath string) (string, error) {
	parts := strings.Split(modulePath, ".")
	for _, root := range r.searchPaths {
		if !isDir(root) {
			continue
		}
		for _, candidate := range moduleCandidates(root, parts) {
			if isFile(candidate) {
				return candidate, nil
			}
		}
	}
	return "", (&errors.DomainError{
		Code:    errors.CodeModuleNotFound,
		Message: fmt.Sprintf("Could not resolve module: %s (tried %d search paths)", modulePath, len(r.searchPaths)),
	}).WithContext(errors.CtxModule, modulePath).WithContext(errors.CtxAttempted, len(r.searchPaths))
}

// moduleCandidates lists the files tried under one search path, in priority order.
func moduleCandidates(root string, parts []string) []string {
	base := filepath.Join(append([]string{root}, parts...)...)
	out := []string{
		filepath.Join(base, "__init__.pyi"),
		filepath.Join(base, "__init__.py"),
		base + ".pyi",
		base + ".py",
	}
	if len(parts) > 1 {
		parent := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)
		last := parts[len(parts)-1]
		out = append(out,
			filepath.Join(parent, last+".pyi"),
			filepath.Join(parent, last+".py"),
		)
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
