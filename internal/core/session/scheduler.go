package session

import (
	"context"
	"log/slog"
	"sync"

	"hydralsp/internal/shared/observability"
	"hydralsp/internal/shared/util"

	"golang.org/x/sync/semaphore"
)

// Sink receives analyses that are still current when they finish.
type Sink func(Analysis)

// Scheduler runs analyses off the caller's goroutine. Each document has a
// generation counter; a finished run is published only if no newer run for
// the same document was submitted meanwhile. Older runs are not interrupted,
// their output is dropped.
type Scheduler struct {
	analyzer *Analyzer
	sink     Sink
	sem      *semaphore.Weighted
	limiter  *util.Limiter

	mu          sync.Mutex
	publishMu   sync.Mutex
	generations map[string]uint64
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

type SchedulerOptions struct {
	// Workers bounds concurrent runs. Values below 1 mean 1.
	Workers int
	// RateLimit is runs per second; zero disables pacing.
	RateLimit float64
	RateBurst int
}

func NewScheduler(analyzer *Analyzer, sink Sink, opts SchedulerOptions) *Scheduler {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		analyzer:    analyzer,
		sink:        sink,
		sem:         semaphore.NewWeighted(int64(workers)),
		limiter:     util.NewLimiter(opts.RateLimit, opts.RateBurst),
		generations: make(map[string]uint64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit schedules an analysis of snap and returns its generation. It returns
// 0 once the scheduler is closed.
func (s *Scheduler) Submit(snap Snapshot) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.generations[snap.URI]++
	gen := s.generations[snap.URI]
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(snap, gen)
	return gen
}

// Forget drops generation tracking for uri so any in-flight run is discarded.
func (s *Scheduler) Forget(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[uri]++
}

func (s *Scheduler) current(uri string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.generations[uri] == gen
}

func (s *Scheduler) run(snap Snapshot, gen uint64) {
	defer s.wg.Done()

	if err := s.limiter.Wait(s.ctx, 1); err != nil {
		observability.AnalysisRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}
	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		observability.AnalysisRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}
	defer s.sem.Release(1)

	if !s.current(snap.URI, gen) {
		observability.AnalysisRunsTotal.WithLabelValues("superseded").Inc()
		return
	}

	observability.SchedulerInFlight.Inc()
	result := s.analyzer.Analyze(s.ctx, snap)
	observability.SchedulerInFlight.Dec()

	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if !s.current(snap.URI, gen) {
		slog.Debug("discarding superseded analysis", "uri", snap.URI, "generation", gen)
		observability.AnalysisRunsTotal.WithLabelValues("superseded").Inc()
		return
	}
	observability.AnalysisRunsTotal.WithLabelValues("published").Inc()
	if s.sink != nil {
		s.sink(result)
	}
}

// Wait blocks until every submitted run has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close rejects new submissions, stops queued runs and waits for in-flight
// ones. Results finishing after Close are not published.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
