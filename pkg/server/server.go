package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/elonfeng/rechargeradar/internal/scheduler"
	"github.com/elonfeng/rechargeradar/internal/store"
	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

const (
	defaultCandidateLimit = 50
	defaultSignalLimit    = 100
	defaultRunLimit       = 20
	maxLimit              = 1000
)

// Scanner runs a scan on demand.
type Scanner interface {
	RunOnce(ctx context.Context) (*scheduler.Outcome, error)
}

// Server provides the HTTP API.
type Server struct {
	store    store.Store
	engine   *trend.Engine
	sources  []source.SourceType
	scanner  Scanner
	calendar []event.Entry
	port     int
	log      zerolog.Logger
}

// New creates a new HTTP server. scanner may be nil, in which case scans
// cannot be triggered over HTTP.
func New(s store.Store, engine *trend.Engine, sources []source.SourceType, scanner Scanner, port int, log zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:   s,
		engine:  engine,
		sources: sources,
		scanner: scanner,
		port:    port,
		log:     log,
	}
}

// WithCalendar sets the calendar served by /api/v1/events.
func (s *Server) WithCalendar(cal []event.Entry) *Server {
	s.calendar = cal
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api/v1")
	api.GET("/candidates", s.handleCandidates)
	api.GET("/signals", s.handleSignals)
	api.GET("/sources", s.handleSources)
	api.GET("/runs", s.handleRuns)
	api.GET("/history", s.handleHistory)
	api.GET("/events", s.handleEvents)
	api.POST("/scan", s.handleScan)
	return r
}

// ListenAndServe serves the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCandidates(c *gin.Context) {
	run, ok := s.resolveRun(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, defaultCandidateLimit)
	if !ok {
		return
	}

	entries, err := s.store.ListSnapshot(c.Request.Context(), run.ID, limit)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   run,
		"data":  entries,
		"count": len(entries),
	})
}

func (s *Server) handleSignals(c *gin.Context) {
	run, ok := s.resolveRun(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, defaultSignalLimit)
	if !ok {
		return
	}

	signals, err := s.store.ListSignals(c.Request.Context(), store.SignalListOpts{
		RunID:  run.ID,
		Source: source.SourceType(c.Query("source")),
		Limit:  limit,
	})
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   run.ID,
		"data":  signals,
		"count": len(signals),
	})
}

func (s *Server) handleSources(c *gin.Context) {
	counts := map[source.SourceType]int{}
	var runID string
	run, err := s.store.LatestRun(c.Request.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		internalError(c, err)
		return
	default:
		runID = run.ID
		if counts, err = s.store.CountSignalsBySource(c.Request.Context(), run.ID); err != nil {
			internalError(c, err)
			return
		}
	}

	type sourceInfo struct {
		Name    string  `json:"name"`
		Enabled bool    `json:"enabled"`
		Signals int     `json:"signals"`
		Weight  float64 `json:"weight"`
	}

	enabled := make(map[source.SourceType]bool, len(s.sources))
	for _, st := range s.sources {
		enabled[st] = true
	}

	tables := s.engine.Tables()
	infos := make([]sourceInfo, 0, len(source.AllSourceTypes()))
	for _, st := range source.AllSourceTypes() {
		infos = append(infos, sourceInfo{
			Name:    string(st),
			Enabled: enabled[st],
			Signals: counts[st],
			Weight:  tables.Weight(st),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   runID,
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, ok := queryLimit(c, defaultRunLimit)
	if !ok {
		return
	}
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	prev, h, err := s.engine.History(c.Request.Context(), c.Query("run"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"previous":  prev,
		"movements": h.Movements,
		"dropped":   h.Dropped,
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	at := time.Now()
	if d := c.Query("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		at = t
	}
	evs := event.Upcoming(s.calendar, at)
	c.JSON(http.StatusOK, gin.H{
		"date":  at.Format("2006-01-02"),
		"data":  evs,
		"count": len(evs),
	})
}

func (s *Server) handleScan(c *gin.Context) {
	if s.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scanning disabled"})
		return
	}

	out, err := s.scanner.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}

	resp := gin.H{
		"run":        out.Result.Run,
		"signals":    out.Result.SignalCount,
		"candidates": len(out.Result.Candidates),
		"sources":    out.SourceCounts,
		"alerts":     out.Alerts,
		"emailed":    out.Emailed,
		"events":     len(out.Events),
		"duration":   out.Duration.String(),
	}
	if out.Brief != nil {
		resp["summary"] = out.Brief.Summary
	}
	if out.ReportPath != "" {
		resp["report"] = out.ReportPath
	}
	if len(out.Warnings) > 0 {
		resp["warnings"] = out.Warnings
	}
	c.JSON(http.StatusOK, resp)
}

// resolveRun loads the run named by ?run, or the latest run. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) resolveRun(c *gin.Context) (*store.Run, bool) {
	ctx := c.Request.Context()
	id := c.Query("run")

	var run *store.Run
	var err error
	if id == "" {
		run, err = s.store.LatestRun(ctx)
	} else {
		run = &store.Run{ID: id}
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
		return nil, false
	}
	if err != nil {
		internalError(c, err)
		return nil, false
	}
	return run, true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(n, maxLimit), true
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
