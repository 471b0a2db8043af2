package python

import (
	"os"
	"path/filepath"
	"testing"

	"hydralsp/internal/core/errors"
)

func TestCachingExtractor_HitsAndContentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.py")
	writeFile(t, path, "def f(a):\n    pass\n")

	c := NewCachingExtractor(NewExtractor(), 8)
	first, err := c.ExtractFile(path, "f")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ExtractFile(path, "f"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}

	if err := os.WriteFile(path, []byte("def f(a, b):\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := c.ExtractFile(path, "f")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Function.Parameters) != 1 || len(second.Function.Parameters) != 2 {
		t.Errorf("stale definition served after edit: %d then %d params",
			len(first.Function.Parameters), len(second.Function.Parameters))
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cached entries, got %d", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Purge left %d entries", c.Len())
	}
}

func TestCachingExtractor_CachesMisses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.py")
	writeFile(t, path, "x = 1\n")

	c := NewCachingExtractor(NewExtractor(), 8)
	for i := 0; i < 2; i++ {
		if _, err := c.ExtractFile(path, "nothing"); !errors.IsCode(err, errors.CodeSymbolNotFound) {
			t.Fatalf("expected SYMBOL_NOT_FOUND, got %v", err)
		}
	}
	if c.Len() != 1 {
		t.Errorf("expected the miss to be cached once, got %d entries", c.Len())
	}
}

func TestCachingExtractor_UnreadableFile(t *testing.T) {
	c := NewCachingExtractor(NewExtractor(), 8)
	if _, err := c.ExtractFile(filepath.Join(t.TempDir(), "absent.py"), "f"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if c.Len() != 0 {
		t.Errorf("read failures must not be cached, got %d entries", c.Len())
	}
}
