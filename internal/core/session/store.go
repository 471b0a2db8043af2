package session

import (
	"sort"
	"sync"

	"hydralsp/internal/shared/observability"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is an immutable view of a document's text.
type Snapshot struct {
	URI     string
	Text    string
	Version int
	Hash    uint64
}

// DocumentStore holds the current text of every open document.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]Snapshot
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]Snapshot)}
}

// Put stores text for uri and bumps its version. Unchanged text keeps the
// existing snapshot and reports changed=false.
func (s *DocumentStore) Put(uri, text string) (snap Snapshot, changed bool) {
	hash := xxhash.Sum64String(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.docs[uri]
	if ok && prev.Hash == hash && prev.Text == text {
		return prev, false
	}
	snap = Snapshot{URI: uri, Text: text, Version: prev.Version + 1, Hash: hash}
	s.docs[uri] = snap
	if !ok {
		observability.DocumentsOpen.Inc()
	}
	return snap, true
}

func (s *DocumentStore) Get(uri string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.docs[uri]
	return snap, ok
}

func (s *DocumentStore) Remove(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[uri]; !ok {
		return false
	}
	delete(s.docs, uri)
	observability.DocumentsOpen.Dec()
	return true
}

// URIs returns the stored document URIs in sorted order.
func (s *DocumentStore) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
