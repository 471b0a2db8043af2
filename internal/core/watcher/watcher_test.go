package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := NewFilter([]string{"exclude_dir", ".venv"}, []string{"*.tmp.yaml"}, []string{".yaml", ".yml", ".py", ".pyi"})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, newTestFilter(t), nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func waitChanges(t *testing.T, ch <-chan []Change, timeout time.Duration) []Change {
	t.Helper()
	select {
	case changes := <-ch:
		return changes
	case <-time.After(timeout):
		t.Fatal("timed out waiting for file change event")
		return nil
	}
}

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	tmpDir := t.TempDir()
	changed := make(chan []Change, 8)
	w, err := NewWatcher(100*time.Millisecond, newTestFilter(t), func(changes []Change) {
		changed <- changes
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	doc := filepath.Join(tmpDir, "train.yaml")
	if err := os.WriteFile(doc, []byte("_target_: a.B\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changes := waitChanges(t, changed, 2*time.Second)
	if len(changes) != 1 || changes[0].Path != doc || changes[0].Kind != KindDocument || changes[0].Removed {
		t.Errorf("unexpected changes: %+v", changes)
	}

	// Excluded and unwatched files stay silent.
	_ = os.WriteFile(filepath.Join(tmpDir, "scratch.tmp.yaml"), []byte("x: 1\n"), 0o644)
	_ = os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0o644)
	select {
	case changes := <-changed:
		t.Errorf("excluded files triggered changes: %+v", changes)
	case <-time.After(400 * time.Millisecond):
	}

	// New directories are watched and their files reported.
	subdir := filepath.Join(tmpDir, "models")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	src := filepath.Join(subdir, "net.py")
	if err := os.WriteFile(src, []byte("class Net: pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changes = waitChanges(t, changed, 2*time.Second)
	found := false
	for _, c := range changes {
		if c.Path == src && c.Kind == KindPython {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in %+v", src, changes)
	}

	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}
	changes = waitChanges(t, changed, 2*time.Second)
	if len(changes) != 1 || !changes[0].Removed {
		t.Errorf("expected removal, got %+v", changes)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_CloseWithoutWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(time.Second, newTestFilter(t), func([]Change) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWatcher_SetFilter(t *testing.T) {
	w, err := NewWatcher(time.Second, newTestFilter(t), func([]Change) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	next, err := NewFilter([]string{"conf"}, nil, []string{".yaml"})
	if err != nil {
		t.Fatal(err)
	}
	w.SetFilter(nil)
	if w.filter.Load().ExcludeDir("/ws/conf") {
		t.Fatal("nil filter should be ignored")
	}
	w.SetFilter(next)
	if !w.filter.Load().ExcludeDir("/ws/conf") || !w.filter.Load().ExcludeFile("/ws/a.py") {
		t.Error("expected the replacement filter to apply")
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]FileKind{
		"conf/a.yaml": KindDocument,
		"conf/b.YML":  KindDocument,
		"pkg/mod.py":  KindPython,
		"pkg/mod.pyi": KindPython,
		"README.md":   KindOther,
		"Makefile":    KindOther,
	}
	for path, want := range tests {
		if got := Classify(path); got != want {
			t.Errorf("Classify(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	f := newTestFilter(t)
	if !f.ExcludeDir("/ws/.venv") || f.ExcludeDir("/ws/conf") {
		t.Error("unexpected directory exclusion")
	}
	if !f.ExcludeFile("/ws/a.tmp.yaml") || !f.ExcludeFile("/ws/a.txt") || f.ExcludeFile("/ws/a.yaml") {
		t.Error("unexpected file exclusion")
	}
	if !f.Admits("/ws", "/ws/conf/a.yaml") || f.Admits("/ws", "/ws/.venv/lib/a.py") || f.Admits("/ws", "/ws/a.tmp.yaml") {
		t.Error("unexpected Admits result")
	}
	if _, err := NewFilter([]string{"[unclosed"}, nil, nil); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"conf/train.yaml",
		"conf/model/net.yml",
		"conf/scratch.tmp.yaml",
		".venv/lib/site.yaml",
		"exclude_dir/x.yaml",
		"src/pkg.py",
	} {
		path := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Discover(root, []string{"**/*.yaml", "./**/*.yml", "conf/*.yaml"}, newTestFilter(t))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "conf", "model", "net.yml"),
		filepath.Join(root, "conf", "train.yaml"),
	}
	if len(got) != len(want) {
		t.Fatalf("Discover() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Discover()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	abs, err := Discover(root, []string{filepath.Join(root, "conf", "*.yaml")}, newTestFilter(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(abs) != 1 || abs[0] != want[1] {
		t.Errorf("absolute pattern = %v", abs)
	}
}
