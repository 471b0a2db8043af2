package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"hydralsp/internal/data/queue"
	"hydralsp/internal/shared/observability"
)

const (
	writerBatch = 32
	writerWait  = 250 * time.Millisecond
)

// Writer saves runs in the background so callers on hot paths never wait on
// sqlite. Runs submitted while the queue is full are dropped.
type Writer struct {
	store *Store
	queue *queue.MemoryQueue[Run]

	mu      sync.Mutex
	drained *sync.Cond
	pending int

	done chan struct{}
}

func NewWriter(store *Store, capacity int) *Writer {
	w := &Writer{
		store: store,
		queue: queue.NewMemoryQueue[Run](capacity),
		done:  make(chan struct{}),
	}
	w.drained = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Submit queues run and reports whether it was accepted.
func (w *Writer) Submit(run Run) bool {
	w.mu.Lock()
	w.pending++
	w.mu.Unlock()

	if w.queue.Enqueue(run) != queue.EnqueueAccepted {
		observability.HistoryWritesTotal.WithLabelValues("dropped").Inc()
		w.finish(1)
		return false
	}
	return true
}

// Flush blocks until every accepted run has been written or failed.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.pending > 0 {
		w.drained.Wait()
	}
}

// Close stops accepting runs and waits for the queue to drain.
func (w *Writer) Close() {
	_ = w.queue.Close()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	ctx := context.Background()
	for {
		batch, err := w.queue.DequeueBatch(ctx, writerBatch, writerWait)
		for _, run := range batch {
			if _, saveErr := w.store.SaveRun(run); saveErr != nil {
				slog.Warn("failed to record run", "document", run.Document, "error", saveErr)
			}
		}
		w.finish(len(batch))
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func (w *Writer) finish(n int) {
	if n == 0 {
		return
	}
	w.mu.Lock()
	w.pending -= n
	w.drained.Broadcast()
	w.mu.Unlock()
}
