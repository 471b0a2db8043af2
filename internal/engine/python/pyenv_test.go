package python

import (
	"fmt"
	"path/filepath"
	"testing"
)

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func noPython(string) (string, error) {
	return "", fmt.Errorf("not found")
}

// makePrefix creates a prefix with one site-packages directory and returns it.
func makePrefix(t *testing.T, prefix string) string {
	t.Helper()
	site := filepath.Join(prefix, "lib", "python3.11", "site-packages")
	writeFile(t, filepath.Join(site, ".keep"), "")
	return site
}

func TestDiscovery_Priority(t *testing.T) {
	tmp := t.TempDir()
	venv := filepath.Join(tmp, "venv")
	conda := filepath.Join(tmp, "conda")
	makePrefix(t, venv)
	makePrefix(t, conda)

	workspace := filepath.Join(tmp, "ws")
	local := filepath.Join(workspace, ".venv")
	makePrefix(t, local)
	writeFile(t, filepath.Join(local, "pyvenv.cfg"), "home = /usr/bin\n")

	tests := []struct {
		name   string
		vars   map[string]string
		want   EnvironmentOrigin
		prefix string
	}{
		{"virtual env wins", map[string]string{"VIRTUAL_ENV": venv, "CONDA_PREFIX": conda}, OriginVirtualEnv, venv},
		{"conda prefix", map[string]string{"CONDA_PREFIX": conda}, OriginConda, conda},
		{"workspace venv", map[string]string{}, OriginWorkspace, local},
		{"stale VIRTUAL_ENV ignored", map[string]string{"VIRTUAL_ENV": filepath.Join(tmp, "gone")}, OriginWorkspace, local},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Discovery{WorkspaceRoot: workspace, LookupEnv: envFrom(tt.vars), LookPath: noPython}
			env, err := d.Environment()
			if err != nil {
				t.Fatal(err)
			}
			if env.Origin != tt.want || env.Prefix != tt.prefix {
				t.Errorf("got %s at %s, want %s at %s", env.Origin, env.Prefix, tt.want, tt.prefix)
			}
		})
	}
}

func TestDiscovery_ExplicitInterpreter(t *testing.T) {
	tmp := t.TempDir()
	prefix := filepath.Join(tmp, "py")
	site := makePrefix(t, prefix)
	exe := filepath.Join(prefix, "bin", "python3")
	writeFile(t, exe, "")

	d := Discovery{
		Interpreter: exe,
		LookupEnv:   envFrom(map[string]string{"VIRTUAL_ENV": tmp}),
		LookPath:    noPython,
	}
	env, err := d.Environment()
	if err != nil {
		t.Fatal(err)
	}
	if env.Origin != OriginInterpreter || env.Prefix != prefix {
		t.Fatalf("got %s at %s", env.Origin, env.Prefix)
	}

	paths, err := d.SitePackages()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != site {
		t.Errorf("SitePackages() = %v, want [%s]", paths, site)
	}
}

func TestDiscovery_MissingInterpreter(t *testing.T) {
	d := Discovery{Interpreter: filepath.Join(t.TempDir(), "nope"), LookPath: noPython}
	if _, err := d.Environment(); err == nil {
		t.Fatal("expected error for missing interpreter")
	}
}

func TestDiscovery_CondaBaseFromHome(t *testing.T) {
	home := t.TempDir()
	base := filepath.Join(home, "miniconda3")
	makePrefix(t, base)
	writeFile(t, filepath.Join(base, "conda-meta", "history"), "")

	d := Discovery{LookupEnv: envFrom(map[string]string{"HOME": home}), LookPath: noPython}
	env, err := d.Environment()
	if err != nil {
		t.Fatal(err)
	}
	if env.Origin != OriginCondaBase || env.Prefix != base {
		t.Errorf("got %s at %s", env.Origin, env.Prefix)
	}
}

func TestDiscovery_NothingFound(t *testing.T) {
	d := Discovery{LookupEnv: envFrom(map[string]string{"HOME": t.TempDir()}), LookPath: noPython}
	if _, err := d.Environment(); err == nil {
		t.Fatal("expected error when no environment exists")
	}
	if _, err := d.SitePackages(); err == nil {
		t.Fatal("expected SitePackages error when no environment exists")
	}
}

func TestDiscovery_SystemSitePackages(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	baseSite := makePrefix(t, base)
	venv := filepath.Join(tmp, "venv")
	venvSite := makePrefix(t, venv)
	writeFile(t, filepath.Join(venv, "pyvenv.cfg"),
		"home = "+filepath.Join(base, "bin")+"\ninclude-system-site-packages = true\nversion = 3.11.4\n")

	d := Discovery{LookupEnv: envFrom(map[string]string{"VIRTUAL_ENV": venv}), LookPath: noPython}
	paths, err := d.SitePackages()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != venvSite || paths[1] != baseSite {
		t.Errorf("SitePackages() = %v, want [%s %s]", paths, venvSite, baseSite)
	}
}

func TestSitePackagesUnder_DistPackages(t *testing.T) {
	prefix := t.TempDir()
	dist := filepath.Join(prefix, "lib", "python3.12", "dist-packages")
	writeFile(t, filepath.Join(dist, ".keep"), "")
	writeFile(t, filepath.Join(prefix, "lib", "python3.12", "site-packages.txt"), "")

	got := sitePackagesUnder(prefix)
	if len(got) != 1 || got[0] != dist {
		t.Errorf("sitePackagesUnder() = %v, want [%s]", got, dist)
	}
}

func TestNewResolverFromDiscovery_ToleratesFailure(t *testing.T) {
	root := workspaceRoot(t)
	d := Discovery{WorkspaceRoot: root, LookupEnv: envFrom(map[string]string{"HOME": t.TempDir()}), LookPath: noPython}
	r := NewResolverFromDiscovery(d)
	if _, err := r.Resolve("pkg.nodes"); err != nil {
		t.Fatalf("workspace resolution should survive discovery failure: %v", err)
	}
}
