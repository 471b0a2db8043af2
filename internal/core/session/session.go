package session

import (
	"sync"

	"hydralsp/internal/engine/diagnostics"
)

// Session tracks open documents and the latest published analysis of each.
type Session struct {
	store     *DocumentStore
	analyzer  *Analyzer
	scheduler *Scheduler

	mu        sync.RWMutex
	latest    map[string]Analysis
	listeners []Sink
}

func New(analyzer *Analyzer, opts SchedulerOptions) *Session {
	s := &Session{
		store:    NewDocumentStore(),
		analyzer: analyzer,
		latest:   make(map[string]Analysis),
	}
	s.scheduler = NewScheduler(analyzer, s.publish, opts)
	return s
}

// Subscribe registers fn to receive every published analysis.
func (s *Session) Subscribe(fn Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) publish(a Analysis) {
	s.mu.Lock()
	if _, open := s.store.Get(a.URI); !open {
		s.mu.Unlock()
		return
	}
	s.latest[a.URI] = a
	listeners := append([]Sink(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(a)
	}
}

// Update stores new text for uri and schedules an analysis when the text
// changed. It returns the scheduled generation, or 0 when nothing was scheduled.
func (s *Session) Update(uri, text string) uint64 {
	snap, changed := s.store.Put(uri, text)
	if !changed {
		return 0
	}
	return s.scheduler.Submit(snap)
}

// CloseDocument forgets uri and discards any analysis still running for it.
func (s *Session) CloseDocument(uri string) {
	s.store.Remove(uri)
	s.scheduler.Forget(uri)
	s.mu.Lock()
	delete(s.latest, uri)
	s.mu.Unlock()
}

// Reanalyze resubmits every open document, e.g. after Python sources changed.
func (s *Session) Reanalyze() int {
	n := 0
	for _, uri := range s.store.URIs() {
		if snap, ok := s.store.Get(uri); ok {
			s.scheduler.Submit(snap)
			n++
		}
	}
	return n
}

// Analysis returns the latest published analysis of uri.
func (s *Session) Analysis(uri string) (Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.latest[uri]
	return a, ok
}

// Findings returns the latest findings of every open document.
func (s *Session) Findings() map[string][]diagnostics.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]diagnostics.Finding, len(s.latest))
	for uri, a := range s.latest {
		out[uri] = a.Findings
	}
	return out
}

func (s *Session) Documents() []string {
	return s.store.URIs()
}

// Wait blocks until all scheduled analyses have finished.
func (s *Session) Wait() {
	s.scheduler.Wait()
}

func (s *Session) Close() {
	s.scheduler.Close()
}
