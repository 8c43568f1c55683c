package trend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rechargeradar/internal/store"
	"github.com/elonfeng/rechargeradar/pkg/category"
	"github.com/elonfeng/rechargeradar/pkg/source"
)

// Engine turns collected signals into ranked candidates and records each run.
type Engine struct {
	store   store.Store
	tables  *Tables
	dedup   *Deduplicator
	scorer  *Scorer
	matcher Matcher
	log     zerolog.Logger
}

// NewEngine creates a new engine. A nil tables or classifier selects the
// built-in defaults.
func NewEngine(s store.Store, t *Tables, c *category.Classifier, log zerolog.Logger) *Engine {
	if t == nil {
		t = DefaultTables()
	}
	if c == nil {
		c = category.NewDefault()
	}
	return &Engine{
		store:   s,
		tables:  t,
		dedup:   NewDeduplicator(t, c),
		scorer:  NewScorer(t),
		matcher: NewMatcher(t.MatchThreshold),
		log:     log,
	}
}

// Result is the outcome of one engine run.
type Result struct {
	Run         *store.Run
	Previous    *store.Run
	Candidates  []*Candidate
	Snapshot    []store.SnapshotEntry
	History     History
	SignalCount int
}

// Tables returns the engine's scoring tables.
func (e *Engine) Tables() *Tables { return e.tables }

// Rank normalizes, deduplicates and scores signals. It performs no I/O and
// leaves bySource untouched.
func (e *Engine) Rank(bySource map[source.SourceType][]source.Signal) []*Candidate {
	normed := Normalize(bySource, e.tables)
	return e.scorer.Score(e.dedup.Dedup(normed))
}

// Run ranks the signals, persists them together with the top-N snapshot and
// compares the snapshot with the previous successful run.
func (e *Engine) Run(ctx context.Context, bySource map[source.SourceType][]source.Signal) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	normed := Normalize(bySource, e.tables)
	cands := e.scorer.Score(e.dedup.Dedup(normed))

	res := &Result{
		Run:         run,
		Candidates:  cands,
		SignalCount: source.Count(bySource),
	}
	e.log.Info().
		Str("run", run.ID).
		Int("signals", res.SignalCount).
		Int("candidates", len(cands)).
		Msg("ranked signals")

	if err := ctx.Err(); err != nil {
		return nil, e.fail(ctx, run, err)
	}

	if err := e.store.SaveSignals(ctx, run.ID, signalRecords(bySource, normed)); err != nil {
		return nil, e.fail(ctx, run, fmt.Errorf("save signals: %w", err))
	}

	res.Snapshot = Snapshot(cands, e.tables.TopN)
	if err := e.store.SaveSnapshot(ctx, run.ID, res.Snapshot); err != nil {
		return nil, e.fail(ctx, run, fmt.Errorf("save snapshot: %w", err))
	}

	prev, prevSnap, err := e.previous(ctx, run.ID)
	if err != nil {
		return nil, e.fail(ctx, run, err)
	}
	res.Previous = prev
	res.History = Compare(res.Snapshot, prevSnap, e.matcher)

	run.SignalCount = res.SignalCount
	run.CandidateCount = len(cands)
	if err := e.store.FinishRun(ctx, run); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	return res, nil
}

// History compares the snapshot of runID, or of the latest run when runID is
// empty, with the run before it.
func (e *Engine) History(ctx context.Context, runID string) (*store.Run, History, error) {
	var run *store.Run
	var err error
	if runID == "" {
		run, err = e.store.LatestRun(ctx)
		if err != nil {
			return nil, History{}, err
		}
		runID = run.ID
	}

	cur, err := e.store.ListSnapshot(ctx, runID, 0)
	if err != nil {
		return nil, History{}, err
	}
	prev, prevSnap, err := e.previous(ctx, runID)
	if err != nil {
		return nil, History{}, err
	}
	return prev, Compare(cur, prevSnap, e.matcher), nil
}

func (e *Engine) previous(ctx context.Context, runID string) (*store.Run, []store.SnapshotEntry, error) {
	prev, err := e.store.PreviousRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load previous run: %w", err)
	}

	snap, err := e.store.ListSnapshot(ctx, prev.ID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("load previous snapshot: %w", err)
	}
	return prev, snap, nil
}

// fail marks the run failed and returns cause. The run is finished on a
// context detached from ctx so that a cancelled scan is still recorded.
func (e *Engine) fail(ctx context.Context, run *store.Run, cause error) error {
	run.Status = store.RunFailed
	run.Error = cause.Error()
	if err := e.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		e.log.Warn().Err(err).Str("run", run.ID).Msg("mark run failed")
	}
	return cause
}

func signalRecords(raw, normed map[source.SourceType][]source.Signal) []store.SignalRecord {
	var out []store.SignalRecord
	for _, st := range source.SortedTypes(raw) {
		n := normed[st]
		for i, s := range raw[st] {
			score := s.Score
			if i < len(n) {
				score = n[i].Score
			}
			out = append(out, store.NewSignalRecord(s, score))
		}
	}
	return out
}
