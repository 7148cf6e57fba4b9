// Package store keeps a history of analysis runs and their ranked clips in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/streamclip/internal/types"
)

// ErrRunNotFound is returned by RunClips for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db *sql.DB
}

// Run is one analyze or run invocation.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Comments   string    `json:"comments"`
	Transcript string    `json:"transcript"`
	Preset     string    `json:"preset"`
	OutDir     string    `json:"out_dir"`
	Clips      int       `json:"clips"`
	TopScore   int       `json:"top_score"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	comments TEXT NOT NULL,
	transcript TEXT NOT NULL,
	preset TEXT NOT NULL,
	out_dir TEXT NOT NULL,
	clip_count INTEGER NOT NULL,
	top_score INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS clips (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	clip_rank INTEGER NOT NULL,
	start_sec REAL NOT NULL,
	end_sec REAL NOT NULL,
	score INTEGER NOT NULL,
	title TEXT NOT NULL,
	reason TEXT NOT NULL,
	keywords TEXT NOT NULL,
	breakdown TEXT NOT NULL,
	PRIMARY KEY (run_id, clip_rank)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun records a run and its clips in rank order. Clips and TopScore on
// run are derived from clips.
func (s *Store) SaveRun(ctx context.Context, run Run, clips []types.ClipRecommendation) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.Clips = len(clips)
	run.TopScore = 0
	for _, c := range clips {
		run.TopScore = max(run.TopScore, c.Score)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, created_at, comments, transcript, preset, out_dir, clip_count, top_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Comments, run.Transcript, run.Preset, run.OutDir, run.Clips, run.TopScore)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	for i, c := range clips {
		kw, err := json.Marshal(c.Keywords)
		if err != nil {
			return err
		}
		bd, err := json.Marshal(c.ScoreBreakdown)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO clips (run_id, clip_rank, start_sec, end_sec, score, title, reason, keywords, breakdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i+1, c.Start, c.End, c.Score, c.Title, c.Reason, string(kw), string(bd))
		if err != nil {
			return fmt.Errorf("save clip %d of run %s: %w", i+1, run.ID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the newest runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, created_at, comments, transcript, preset, out_dir, clip_count, top_score
	FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Comments, &r.Transcript, &r.Preset, &r.OutDir, &r.Clips, &r.TopScore); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunClips returns the clips of one run in rank order.
func (s *Store) RunClips(ctx context.Context, runID string) ([]types.ClipRecommendation, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return nil, fmt.Errorf("run clips: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT start_sec, end_sec, score, title, reason, keywords, breakdown
	FROM clips WHERE run_id = ? ORDER BY clip_rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("run clips: %w", err)
	}
	defer rows.Close()

	out := []types.ClipRecommendation{}
	for rows.Next() {
		var c types.ClipRecommendation
		var kw, bd string
		if err := rows.Scan(&c.Start, &c.End, &c.Score, &c.Title, &c.Reason, &kw, &bd); err != nil {
			return nil, fmt.Errorf("run clips: %w", err)
		}
		if err := json.Unmarshal([]byte(kw), &c.Keywords); err != nil {
			return nil, fmt.Errorf("run clips: keywords: %w", err)
		}
		if err := json.Unmarshal([]byte(bd), &c.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("run clips: breakdown: %w", err)
		}
		c.Duration = c.End - c.Start
		out = append(out, c)
	}
	return out, rows.Err()
}
