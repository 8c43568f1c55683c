package trend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/rechargeradar/internal/store"
	"github.com/elonfeng/rechargeradar/pkg/source"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEngineRunPersistsAndCompares(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	e := NewEngine(st, nil, nil, nopLogger())

	first := gtaScenario()
	first[source.SourceEpic] = []source.Signal{sig(source.SourceEpic, "Hades II free on Epic", 75)}

	res1, err := e.Run(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, store.RunDone, res1.Run.Status)
	assert.Equal(t, 4, res1.SignalCount)
	assert.Len(t, res1.Candidates, 2)
	assert.Nil(t, res1.Previous)
	require.Len(t, res1.History.Movements, 2)
	for _, m := range res1.History.Movements {
		assert.Equal(t, StatusNew, m.Status)
	}

	records, err := st.ListSignals(ctx, store.SignalListOpts{RunID: res1.Run.ID})
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, r := range records {
		if r.Source == source.SourceSteam {
			assert.Equal(t, 80.0, r.RawScore)
			assert.Equal(t, 60.0, r.Score)
			assert.Equal(t, []string{"GTA"}, r.Categories)
		}
	}

	second := map[source.SourceType][]source.Signal{
		source.SourceEpic:  {sig(source.SourceEpic, "Hades II free on Epic", 75)},
		source.SourceGOG:   {sig(source.SourceGOG, "Hades II free on Epic", 50)},
		source.SourceSteam: {sig(source.SourceSteam, "GTA 6 trailer breaks record", 80, "GTA")},
	}
	res2, err := e.Run(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, res2.Previous)
	assert.Equal(t, res1.Run.ID, res2.Previous.ID)
	assert.Empty(t, res2.History.Dropped)

	statuses := map[string]Status{}
	for _, m := range res2.History.Movements {
		statuses[m.Title] = m.Status
	}
	assert.Equal(t, StatusUp, statuses["Hades II free on Epic"])
	assert.Equal(t, StatusDown, statuses["GTA 6 trailer breaks record"])

	prev, h, err := e.History(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, res1.Run.ID, prev.ID)
	assert.Equal(t, res2.History, h)

	latest, err := st.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res2.Run.ID, latest.ID)
	assert.Equal(t, 3, latest.SignalCount)
	assert.Equal(t, 2, latest.CandidateCount)
}

func TestEngineRunHonoursCancelledContext(t *testing.T) {
	st := newTestStore(t)
	e := NewEngine(st, nil, nil, nopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, gtaScenario())
	require.ErrorIs(t, err, context.Canceled)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngineRunEmpty(t *testing.T) {
	st := newTestStore(t)
	e := NewEngine(st, nil, nil, nopLogger())

	res, err := e.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Snapshot)
	assert.Equal(t, store.RunDone, res.Run.Status)
}

func TestEngineSnapshotBoundedByTopN(t *testing.T) {
	st := newTestStore(t)
	tables := DefaultTables()
	tables.TopN = 2
	e := NewEngine(st, tables, nil, nopLogger())

	in := map[source.SourceType][]source.Signal{
		source.SourceNews: {
			sig(source.SourceNews, "Roblox outage", 10),
			sig(source.SourceNews, "Netflix price hike", 20),
			sig(source.SourceNews, "Minecraft Live", 30),
		},
	}
	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
	assert.Len(t, res.Snapshot, 2)

	snap, err := st.ListSnapshot(context.Background(), res.Run.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot[0].Title, snap[0].Title)
}
