// Package progress persists practice history: one row per finished practice
// round, letter summaries for review. Backed by SQLite via the pure-Go
// modernc driver, so the trainer stays CGO-free outside the speech engines.
//
// History is optional. A Store opened with an empty path is disabled: every
// method succeeds as a no-op, which keeps the caller free of nil checks and
// conditionals.
package progress

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies how a practice round ended.
type Outcome string

const (
	// OutcomeLetter is a successfully resolved letter.
	OutcomeLetter Outcome = "letter"

	// OutcomeExit is the learner ending the session by voice.
	OutcomeExit Outcome = "exit"

	// OutcomeUnknown is speech that was heard but did not resolve.
	OutcomeUnknown Outcome = "unknown"

	// OutcomeTimeout is a round in which nothing usable was heard.
	OutcomeTimeout Outcome = "timeout"
)

// Attempt is one recorded practice round.
type Attempt struct {
	ID int64

	// Outcome classifies the round.
	Outcome Outcome

	// Letter is the resolved letter, empty unless Outcome is OutcomeLetter.
	Letter string

	// Heard is the raw transcript the round was resolved from, empty for
	// timeouts.
	Heard string

	// Confidence is the transcript's mean word confidence; meaningful only
	// when HasConfidence is set.
	Confidence    float64
	HasConfidence bool

	// At is when the round finished, UTC. Zero means "now" on Record.
	At time.Time
}

// Summary aggregates the practice rounds of one letter.
type Summary struct {
	Letter        string
	Attempts      int
	LastPracticed time.Time
}

// Store is the SQLite-backed practice history. Safe for concurrent use; the
// underlying database handle pools connections.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store at path, creating the parent directory
// and schema as needed. An empty path returns a disabled store.
func Open(ctx context.Context, path string) (*Store, error) {
	log := slog.With(slog.String("component", "progress"))
	if path == "" {
		log.Debug("practice history disabled")
		return &Store{log: log, clock: time.Now}, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("progress: create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("progress: open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: init schema: %w", err)
	}
	log.Info("practice history opened", slog.String("path", path))
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    outcome TEXT NOT NULL,
    letter TEXT NOT NULL DEFAULT '',
    heard TEXT NOT NULL DEFAULT '',
    confidence REAL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_letter_id ON attempts(letter, id);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Enabled reports whether rounds are actually persisted.
func (s *Store) Enabled() bool { return s.db != nil }

// Ping verifies the database is reachable. Used by the readiness probe; a
// disabled store is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle. Safe on a disabled store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record writes one practice round. A zero At is stamped with the current
// time. No-op on a disabled store.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	if s.db == nil {
		return nil
	}
	if a.At.IsZero() {
		a.At = s.clock().UTC()
	}
	var confidence any
	if a.HasConfidence {
		confidence = a.Confidence
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(outcome, letter, heard, confidence, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		string(a.Outcome), a.Letter, a.Heard, confidence, a.At)
	if err != nil {
		return fmt.Errorf("progress: record attempt: %w", err)
	}
	return nil
}

// Recent returns the newest rounds, most recent first. A non-positive limit
// defaults to 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, outcome, letter, heard, confidence, created_at
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("progress: query recent: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a          Attempt
			outcome    string
			confidence sql.NullFloat64
			created    string
		)
		if err := rows.Scan(&a.ID, &outcome, &a.Letter, &a.Heard, &confidence, &created); err != nil {
			return nil, fmt.Errorf("progress: scan attempt: %w", err)
		}
		a.Outcome = Outcome(outcome)
		if confidence.Valid {
			a.Confidence = confidence.Float64
			a.HasConfidence = true
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.At = ts
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Summaries returns per-letter practice totals in alphabetical order. Rounds
// without a resolved letter (timeouts, unknowns) are not part of any summary.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	if s.db == nil {
		return nil, nil
	}
	// Latest round per letter comes from the highest row id, which follows
	// insertion order; comparing serialized timestamps would not.
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.letter, COUNT(*),
		        (SELECT b.created_at FROM attempts b
		         WHERE b.letter = a.letter ORDER BY b.id DESC LIMIT 1)
		 FROM attempts a
		 WHERE a.letter <> ''
		 GROUP BY a.letter
		 ORDER BY a.letter ASC`)
	if err != nil {
		return nil, fmt.Errorf("progress: query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			sum  Summary
			last string
		)
		if err := rows.Scan(&sum.Letter, &sum.Attempts, &last); err != nil {
			return nil, fmt.Errorf("progress: scan summary: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, last); err == nil {
			sum.LastPracticed = ts
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
