package python

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool()

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool()
	pool.Put(nil)
	if pool.Leased() != 0 {
		t.Fatalf("Put(nil) changed lease count: %d", pool.Leased())
	}
}

func TestParserPool_ParsesPython(t *testing.T) {
	pool := NewParserPool()
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("def f(x):\n    return x\n"), nil)
	if tree == nil {
		t.Fatal("expected a tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		t.Fatal("unexpected syntax error")
	}
	if root.Kind() != "module" {
		t.Fatalf("expected module root, got %s", root.Kind())
	}
}

func TestParserPool_Concurrent(t *testing.T) {
	pool := NewParserPool()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := pool.Get()
			defer pool.Put(sp)
			tree := sp.Parse([]byte("class A:\n    pass\n"), nil)
			if tree == nil {
				t.Error("expected a tree")
				return
			}
			tree.Close()
		}()
	}
	wg.Wait()
	if pool.Leased() != 0 {
		t.Fatalf("expected all parsers returned, %d leased", pool.Leased())
	}
}
