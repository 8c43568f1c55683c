package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Run status values.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Run is one scan cycle.
type Run struct {
	ID             string     `db:"id" json:"id"`
	Status         string     `db:"status" json:"status"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	FinishedAt     *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	SignalCount    int        `db:"signal_count" json:"signal_count"`
	CandidateCount int        `db:"candidate_count" json:"candidate_count"`
	Error          string     `db:"error" json:"error,omitempty"`
}

// SignalRecord is a persisted signal with both its source-native and its
// normalized score.
type SignalRecord struct {
	ID             int64             `db:"id" json:"id"`
	RunID          string            `db:"run_id" json:"run_id"`
	Source         source.SourceType `db:"source" json:"source"`
	Title          string            `db:"title" json:"title"`
	Description    string            `db:"description" json:"description"`
	URL            string            `db:"url" json:"url"`
	RawScore       float64           `db:"raw_score" json:"raw_score"`
	Score          float64           `db:"score" json:"score"`
	CategoriesJSON string            `db:"categories" json:"-"`
	Categories     []string          `db:"-" json:"categories"`
	MetaJSON       string            `db:"meta" json:"-"`
	Meta           source.Meta       `db:"-" json:"meta"`
}

// NewSignalRecord pairs a raw signal with its normalized score.
func NewSignalRecord(raw source.Signal, normalized float64) SignalRecord {
	return SignalRecord{
		Source:      raw.Source,
		Title:       raw.Title,
		Description: raw.Desc,
		URL:         raw.URL,
		RawScore:    raw.Score,
		Score:       normalized,
		Categories:  raw.Meta.Categories,
		Meta:        raw.Meta,
	}
}

// SnapshotEntry is one ranked candidate persisted for week-over-week
// comparison.
type SnapshotEntry struct {
	ID              int64    `db:"id" json:"-"`
	RunID           string   `db:"run_id" json:"run_id,omitempty"`
	Rank            int      `db:"rank" json:"rank"`
	Title           string   `db:"title" json:"title"`
	Score           float64  `db:"score" json:"score"`
	Sources         int      `db:"sources" json:"sources"`
	SourceNamesJSON string   `db:"source_names" json:"-"`
	SourceNames     []string `db:"-" json:"source_names"`
	Category        string   `db:"category" json:"category"`
	BizCategory     string   `db:"biz_category" json:"biz_category"`
	URL             string   `db:"url" json:"url"`
}

// SignalListOpts controls signal listing.
type SignalListOpts struct {
	RunID  string
	Source source.SourceType
	Limit  int
}

// Store is the persistence interface.
type Store interface {
	CreateRun(ctx context.Context) (*Run, error)
	FinishRun(ctx context.Context, run *Run) error
	LatestRun(ctx context.Context) (*Run, error)
	PreviousRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	SaveSignals(ctx context.Context, runID string, records []SignalRecord) error
	ListSignals(ctx context.Context, opts SignalListOpts) ([]SignalRecord, error)
	CountSignalsBySource(ctx context.Context, runID string) (map[source.SourceType]int, error)

	SaveSnapshot(ctx context.Context, runID string, entries []SnapshotEntry) error
	ListSnapshot(ctx context.Context, runID string, limit int) ([]SnapshotEntry, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Status:    RunRunning,
		StartedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)",
		run.ID, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun records the final status and counts of a run. A run still marked
// running is stored as done.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *Run) error {
	if run.Status == "" || run.Status == RunRunning {
		run.Status = RunDone
	}
	now := s.now()
	run.FinishedAt = &now

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, signal_count = ?, candidate_count = ?, error = ?
		WHERE id = ?
	`, run.Status, now, run.SignalCount, run.CandidateCount, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// LatestRun returns the most recent successfully finished run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run,
		"SELECT * FROM runs WHERE status = ? ORDER BY started_at DESC LIMIT 1", RunDone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

// PreviousRun returns the newest successful run that started before runID.
func (s *SQLiteStore) PreviousRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, `
		SELECT * FROM runs
		WHERE status = ? AND id != ? AND started_at < (SELECT started_at FROM runs WHERE id = ?)
		ORDER BY started_at DESC LIMIT 1
	`, RunDone, runID, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("previous run of %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("previous run of %s: %w", runID, err)
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY started_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// SaveSignals stores a run's signals in one transaction.
func (s *SQLiteStore) SaveSignals(ctx context.Context, runID string, records []SignalRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save signals: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO signals (run_id, source, title, description, url, raw_score, score, categories, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare save signals: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		r.RunID = runID
		catsJSON, _ := json.Marshal(r.Categories)
		metaJSON, _ := json.Marshal(r.Meta)
		if _, err := stmt.ExecContext(ctx, runID, r.Source, r.Title, r.Description, r.URL,
			r.RawScore, r.Score, string(catsJSON), string(metaJSON)); err != nil {
			return fmt.Errorf("insert signal %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signals: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSignals(ctx context.Context, opts SignalListOpts) ([]SignalRecord, error) {
	query := "SELECT * FROM signals WHERE 1=1"
	var args []any

	if opts.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}

	query += " ORDER BY score DESC, id"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var records []SignalRecord
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	for i := range records {
		json.Unmarshal([]byte(records[i].CategoriesJSON), &records[i].Categories)
		json.Unmarshal([]byte(records[i].MetaJSON), &records[i].Meta)
	}
	return records, nil
}

func (s *SQLiteStore) CountSignalsBySource(ctx context.Context, runID string) (map[source.SourceType]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT source, COUNT(*) AS cnt FROM signals WHERE run_id = ? GROUP BY source", runID)
	if err != nil {
		return nil, fmt.Errorf("count signals by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.SourceType]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[source.SourceType(src)] = cnt
	}
	return counts, rows.Err()
}

// SaveSnapshot replaces the snapshot of a run.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, entries []SnapshotEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("clear snapshot %s: %w", runID, err)
	}

	for i := range entries {
		e := &entries[i]
		e.RunID = runID
		namesJSON, _ := json.Marshal(e.SourceNames)
		e.SourceNamesJSON = string(namesJSON)
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO snapshots (run_id, rank, title, score, sources, source_names, category, biz_category, url)
			VALUES (:run_id, :rank, :title, :score, :sources, :source_names, :category, :biz_category, :url)
		`, e); err != nil {
			return fmt.Errorf("insert snapshot entry %d: %w", e.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSnapshot(ctx context.Context, runID string, limit int) ([]SnapshotEntry, error) {
	query := "SELECT * FROM snapshots WHERE run_id = ? ORDER BY rank"
	args := []any{runID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []SnapshotEntry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshot %s: %w", runID, err)
	}

	for i := range entries {
		json.Unmarshal([]byte(entries[i].SourceNamesJSON), &entries[i].SourceNames)
	}
	return entries, nil
}
