package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hydralsp/internal/shared/observability"
	"hydralsp/internal/shared/util"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one recorded analysis of a document.
type Run struct {
	ID        string
	Document  string
	Version   int
	StartedAt time.Time
	Duration  time.Duration
	Targets   int
	Errors    int
	Hints     int
	Infos     int
	// Codes counts findings per finding code.
	Codes map[string]int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the history database at path. busyTimeout bounds how
// long sqlite waits on a locked database; zero uses two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists run and returns it with its generated ID and timestamp.
func (s *Store) SaveRun(run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.Document) == "" {
		return Run{}, fmt.Errorf("run document must not be empty")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
INSERT INTO runs (id, document, version, started_at_utc, duration_ms, targets, error_count, hint_count, info_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Document,
			run.Version,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.Targets,
			run.Errors,
			run.Hints,
			run.Infos,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		for _, code := range util.SortedStringKeys(run.Codes) {
			if _, err := tx.Exec(`INSERT INTO run_codes (run_id, code, count) VALUES (?, ?, ?)`, run.ID, code, run.Codes[code]); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		observability.HistoryWritesTotal.WithLabelValues("error").Inc()
		return Run{}, err
	}
	observability.HistoryWritesTotal.WithLabelValues("ok").Inc()
	return run, nil
}

// ListRuns returns the newest runs of document first. limit <= 0 means all.
func (s *Store) ListRuns(document string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, document, version, started_at_utc, duration_ms, targets, error_count, hint_count, info_count
FROM runs WHERE document = ?
ORDER BY started_at_utc DESC, id ASC`
	args := []any{document}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := s.withRetry("list runs", func() error {
		rows, err := s.db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs = runs[:0]
		for rows.Next() {
			run, err := scanRun(rows)
			if err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		codes, err := s.loadCodes(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Codes = codes
	}
	return runs, nil
}

// Documents lists every document with recorded runs.
func (s *Store) Documents() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []string
	err := s.withRetry("list documents", func() error {
		rows, err := s.db.Query(`SELECT DISTINCT document FROM runs ORDER BY document`)
		if err != nil {
			return err
		}
		defer rows.Close()
		docs = docs[:0]
		for rows.Next() {
			var d string
			if err := rows.Scan(&d); err != nil {
				return err
			}
			docs = append(docs, d)
		}
		return rows.Err()
	})
	return docs, err
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.Exec(`DELETE FROM runs WHERE started_at_utc < ?`, cutoff.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (s *Store) loadCodes(runID string) (map[string]int, error) {
	codes := make(map[string]int)
	err := s.withRetry("load run codes", func() error {
		rows, err := s.db.Query(`SELECT code, count FROM run_codes WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var code string
			var count int
			if err := rows.Scan(&code, &count); err != nil {
				return err
			}
			codes[code] = count
		}
		return rows.Err()
	})
	return codes, err
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		startedRaw string
		durationMS int64
	)
	if err := rows.Scan(
		&run.ID,
		&run.Document,
		&run.Version,
		&startedRaw,
		&durationMS,
		&run.Targets,
		&run.Errors,
		&run.Hints,
		&run.Infos,
	); err != nil {
		return Run{}, fmt.Errorf("scan run row: %w", err)
	}
	started, err := time.Parse(time.RFC3339Nano, startedRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
	}
	run.StartedAt = started.UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
