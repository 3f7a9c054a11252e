package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session is the persisted summary of one stopped session.
type Session struct {
	ID              uuid.UUID
	StartedAt       time.Time
	StoppedAt       time.Time
	Mode            string
	IntervalSeconds float64
	BPM             float64
	DurationMinutes float64
	StopReason      string
	Displays        int
	MeanDelay       time.Duration
	MaxDelay        time.Duration
	OverNoticeable  int
	OverSevere      int
	OverCritical    int
	Superseded      int
}

// Elapsed is how long the session ran.
func (s Session) Elapsed() time.Duration {
	return s.StoppedAt.Sub(s.StartedAt)
}

// Store provides SQLite-backed persistence for session summaries.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db)
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a session summary.
func (s *Store) Record(ctx context.Context, sess Session) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("record session: store is not open")
	}
	if sess.ID == uuid.Nil {
		return fmt.Errorf("record session: missing id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, stopped_at, mode, interval_seconds, bpm, duration_minutes,
			stop_reason, displays, mean_delay_ns, max_delay_ns, over_100ms, over_500ms, over_1s, superseded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID.String(),
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
		sess.StoppedAt.UTC().Format(time.RFC3339Nano),
		sess.Mode,
		sess.IntervalSeconds,
		sess.BPM,
		sess.DurationMinutes,
		sess.StopReason,
		sess.Displays,
		int64(sess.MeanDelay),
		int64(sess.MaxDelay),
		sess.OverNoticeable,
		sess.OverSevere,
		sess.OverCritical,
		sess.Superseded,
	)
	if err != nil {
		return fmt.Errorf("record session: insert: %w", err)
	}

	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("recent sessions: store is not open")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, stopped_at, mode, interval_seconds, bpm, duration_minutes,
			stop_reason, displays, mean_delay_ns, max_delay_ns, over_100ms, over_500ms, over_1s, superseded
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: query: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess               Session
			id, started, ended string
			meanNS, maxNS      int64
		)
		err := rows.Scan(&id, &started, &ended, &sess.Mode, &sess.IntervalSeconds, &sess.BPM, &sess.DurationMinutes,
			&sess.StopReason, &sess.Displays, &meanNS, &maxNS, &sess.OverNoticeable, &sess.OverSevere, &sess.OverCritical, &sess.Superseded)
		if err != nil {
			return nil, fmt.Errorf("recent sessions: scan: %w", err)
		}

		if sess.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("recent sessions: parse id %q: %w", id, err)
		}
		if sess.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("recent sessions: parse started_at: %w", err)
		}
		if sess.StoppedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("recent sessions: parse stopped_at: %w", err)
		}
		sess.MeanDelay = time.Duration(meanNS)
		sess.MaxDelay = time.Duration(maxNS)

		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent sessions: rows: %w", err)
	}

	return out, nil
}
