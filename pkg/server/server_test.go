package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/rechargeradar/internal/scheduler"
	"github.com/elonfeng/rechargeradar/internal/store"
	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/insight"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

type fixture struct {
	store  *store.SQLiteStore
	engine *trend.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &fixture{store: st, engine: trend.NewEngine(st, nil, nil, zerolog.Nop())}
}

func (f *fixture) scan(t *testing.T) *trend.Result {
	t.Helper()
	res, err := f.engine.Run(context.Background(), map[source.SourceType][]source.Signal{
		source.SourceNews: {
			{Source: source.SourceNews, Title: "GTA 6 trailer breaks records", URL: "https://ign.example/gta", Score: 70},
			{Source: source.SourceNews, Title: "Roblox outage hits millions", Score: 65},
		},
		source.SourceEpic: {
			{Source: source.SourceEpic, Title: "Hades II free on Epic", Score: 75},
		},
	})
	require.NoError(t, err)
	return res
}

type stubScanner struct {
	out *scheduler.Outcome
	err error
}

func (s stubScanner) RunOnce(context.Context) (*scheduler.Outcome, error) { return s.out, s.err }

func (f *fixture) server(scanner Scanner) http.Handler {
	sources := []source.SourceType{source.SourceNews, source.SourceEpic}
	return New(f.store, f.engine, sources, scanner, 0, zerolog.Nop()).Handler()
}

func get(t *testing.T, h http.Handler, method, target string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	code, body := get(t, newFixture(t).server(nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestEmptyStore(t *testing.T) {
	h := newFixture(t).server(nil)

	code, _ := get(t, h, http.MethodGet, "/api/v1/candidates")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, h, http.MethodGet, "/api/v1/history")
	assert.Equal(t, http.StatusNotFound, code)

	code, body := get(t, h, http.MethodGet, "/api/v1/sources")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(len(source.AllSourceTypes())), body["count"])

	code, body = get(t, h, http.MethodGet, "/api/v1/runs")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
}

func TestCandidatesAndSignals(t *testing.T) {
	f := newFixture(t)
	res := f.scan(t)
	h := f.server(nil)

	code, body := get(t, h, http.MethodGet, "/api/v1/candidates?limit=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])
	run := body["run"].(map[string]any)
	assert.Equal(t, res.Run.ID, run["id"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, res.Candidates[0].Title, first["title"])
	assert.Equal(t, float64(1), first["rank"])

	code, body = get(t, h, http.MethodGet, "/api/v1/signals?source=news")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])

	code, body = get(t, h, http.MethodGet, "/api/v1/signals?run=missing")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])

	code, _ = get(t, h, http.MethodGet, "/api/v1/candidates?limit=zero")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSourcesCounts(t *testing.T) {
	f := newFixture(t)
	f.scan(t)

	code, body := get(t, f.server(nil), http.MethodGet, "/api/v1/sources")
	require.Equal(t, http.StatusOK, code)

	byName := map[string]map[string]any{}
	for _, raw := range body["data"].([]any) {
		info := raw.(map[string]any)
		byName[info["name"].(string)] = info
	}
	assert.Equal(t, float64(2), byName["news"]["signals"])
	assert.Equal(t, true, byName["news"]["enabled"])
	assert.Equal(t, false, byName["wiki"]["enabled"])
	assert.Equal(t, float64(0), byName["wiki"]["signals"])
}

func TestRunsAndHistory(t *testing.T) {
	f := newFixture(t)
	first := f.scan(t)
	f.scan(t)
	h := f.server(nil)

	code, body := get(t, h, http.MethodGet, "/api/v1/runs?limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = get(t, h, http.MethodGet, "/api/v1/history")
	require.Equal(t, http.StatusOK, code)
	prev := body["previous"].(map[string]any)
	assert.Equal(t, first.Run.ID, prev["id"])
	for _, raw := range body["movements"].([]any) {
		assert.Equal(t, string(trend.StatusSame), raw.(map[string]any)["status"])
	}
}

func TestScan(t *testing.T) {
	f := newFixture(t)
	res := f.scan(t)

	out := &scheduler.Outcome{
		Result:       res,
		Brief:        insight.Fallback(res.Candidates),
		SourceCounts: map[source.SourceType]int{source.SourceNews: 2, source.SourceEpic: 1},
		Alerts:       1,
		Emailed:      true,
		Events:       []event.Event{{Name: "GTA 6 LAUNCH"}},
		Warnings:     []string{"collect: steam: status 503"},
		Duration:     1500 * time.Millisecond,
	}
	code, body := get(t, f.server(stubScanner{out: out}), http.MethodPost, "/api/v1/scan")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["signals"])
	assert.Equal(t, float64(1), body["alerts"])
	assert.Equal(t, "1.5s", body["duration"])
	assert.Equal(t, true, body["emailed"])
	assert.Equal(t, float64(1), body["events"])
	assert.Len(t, body["warnings"], 1)

	code, _ = get(t, f.server(stubScanner{err: scheduler.ErrBusy}), http.MethodPost, "/api/v1/scan")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = get(t, f.server(nil), http.MethodPost, "/api/v1/scan")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	sources := []source.SourceType{source.SourceNews}
	h := New(f.store, f.engine, sources, nil, 0, zerolog.Nop()).WithCalendar([]event.Entry{
		{Month: 11, StartDay: 19, EndDay: 19, Name: "GTA 6 LAUNCH", Category: "GTA", Priority: 10},
		{Month: 10, StartDay: 15, EndDay: 31, Name: "Call of Duty 2026", Category: "Call of Duty", Priority: 10},
		{Month: 4, StartDay: 1, EndDay: 7, Name: "Spring Anime", Category: "Crunchyroll", Priority: 7},
	}).Handler()

	code, body := get(t, h, http.MethodGet, "/api/v1/events?date=2026-10-16")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2026-10-16", body["date"])
	assert.Equal(t, float64(2), body["count"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Call of Duty 2026", first["name"])
	assert.Equal(t, "ACTIVE NOW", first["status"])
	assert.Equal(t, "critical", first["urgency"])

	code, _ = get(t, h, http.MethodGet, "/api/v1/events?date=16.10.2026")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = get(t, f.server(nil), http.MethodGet, "/api/v1/events")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
}
