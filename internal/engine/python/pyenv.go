package python

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// EnvironmentOrigin records which rule selected the Python environment.
type EnvironmentOrigin string

const (
	OriginInterpreter EnvironmentOrigin = "interpreter"
	OriginVirtualEnv  EnvironmentOrigin = "virtual-env"
	OriginConda       EnvironmentOrigin = "conda"
	OriginWorkspace   EnvironmentOrigin = "workspace-venv"
	OriginCondaBase   EnvironmentOrigin = "conda-base"
	OriginSystem      EnvironmentOrigin = "system"
)

// Environment is a discovered Python installation prefix.
type Environment struct {
	Prefix string
	Origin EnvironmentOrigin
	// SystemSitePackages is set when a venv's pyvenv.cfg includes the base
	// installation's packages.
	SystemSitePackages bool
	BaseHome           string
}

// Discovery finds the active Python environment.
type Discovery struct {
	WorkspaceRoot string
	// Interpreter is an explicit interpreter executable or sys.prefix directory.
	Interpreter string
	LookupEnv   func(string) (string, bool)
	LookPath    func(string) (string, error)
}

func (d Discovery) lookupEnv(key string) string {
	lookup := d.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Environment selects an environment by priority: explicit interpreter,
// VIRTUAL_ENV, CONDA_PREFIX, a .venv under the workspace, the conda base
// installation and finally the system interpreter.
func (d Discovery) Environment() (*Environment, error) {
	if d.Interpreter != "" {
		prefix, err := prefixFromInterpreter(d.Interpreter)
		if err != nil {
			return nil, err
		}
		return newEnvironment(prefix, OriginInterpreter), nil
	}
	if venv := d.lookupEnv("VIRTUAL_ENV"); venv != "" && isDir(venv) {
		return newEnvironment(venv, OriginVirtualEnv), nil
	}
	if conda := d.lookupEnv("CONDA_PREFIX"); conda != "" && isDir(conda) {
		return newEnvironment(conda, OriginConda), nil
	}
	if d.WorkspaceRoot != "" {
		local := filepath.Join(d.WorkspaceRoot, ".venv")
		if isFile(filepath.Join(local, "pyvenv.cfg")) {
			return newEnvironment(local, OriginWorkspace), nil
		}
	}
	if base := d.condaBase(); base != "" {
		return newEnvironment(base, OriginCondaBase), nil
	}
	if prefix := d.systemPrefix(); prefix != "" {
		return newEnvironment(prefix, OriginSystem), nil
	}
	return nil, fmt.Errorf("no python environment found")
}

// SitePackages returns the site-packages directories of the selected environment.
func (d Discovery) SitePackages() ([]string, error) {
	env, err := d.Environment()
	if err != nil {
		return nil, err
	}
	paths := sitePackagesUnder(env.Prefix)
	if env.SystemSitePackages && env.BaseHome != "" {
		paths = append(paths, sitePackagesUnder(filepath.Dir(env.BaseHome))...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no site-packages under %s (%s)", env.Prefix, env.Origin)
	}
	return paths, nil
}

func newEnvironment(prefix string, origin EnvironmentOrigin) *Environment {
	env := &Environment{Prefix: prefix, Origin: origin}
	cfg := readPyvenvCfg(filepath.Join(prefix, "pyvenv.cfg"))
	if v, ok := cfg["include-system-site-packages"]; ok {
		env.SystemSitePackages = strings.EqualFold(v, "true")
	}
	env.BaseHome = cfg["home"]
	return env
}

// prefixFromInterpreter maps an interpreter path to its installation prefix.
func prefixFromInterpreter(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("python interpreter %q: %w", path, err)
	}
	if info.IsDir() {
		return path, nil
	}
	dir := filepath.Dir(path)
	switch strings.ToLower(filepath.Base(dir)) {
	case "bin", "scripts":
		return filepath.Dir(dir), nil
	}
	return dir, nil
}

func (d Discovery) condaBase() string {
	if exe := d.lookupEnv("CONDA_EXE"); exe != "" {
		// <base>/bin/conda or <base>/condabin/conda
		base := filepath.Dir(filepath.Dir(exe))
		if isDir(filepath.Join(base, "conda-meta")) {
			return base
		}
	}
	home := d.lookupEnv("HOME")
	if home == "" {
		return ""
	}
	for _, name := range []string{"miniconda3", "anaconda3", "miniforge3", "mambaforge"} {
		base := filepath.Join(home, name)
		if isDir(filepath.Join(base, "conda-meta")) {
			return base
		}
	}
	return ""
}

func (d Discovery) systemPrefix() string {
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range []string{"python3", "python"} {
		exe, err := lookPath(name)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		prefix, err := prefixFromInterpreter(exe)
		if err == nil {
			return prefix
		}
	}
	return ""
}

// sitePackagesUnder globs the site-packages layouts of a prefix.
func sitePackagesUnder(prefix string) []string {
	patterns := []string{
		filepath.Join(prefix, "lib", "python3*", "{site,dist}-packages"),
		filepath.Join(prefix, "lib64", "python3*", "site-packages"),
		filepath.Join(prefix, "local", "lib", "python3*", "dist-packages"),
	}
	if runtime.GOOS == "windows" {
		patterns = append(patterns, filepath.Join(prefix, "Lib", "site-packages"))
	}

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] || !isDir(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// readPyvenvCfg parses the key = value lines of a pyvenv.cfg file.
func readPyvenvCfg(path string) map[string]string {
	out := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}
