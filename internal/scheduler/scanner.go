package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rechargeradar/pkg/alert"
	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/insight"
	"github.com/elonfeng/rechargeradar/pkg/report"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

// ErrBusy is returned when a scan is requested while another one runs.
var ErrBusy = errors.New("scan already running")

// Collector gathers signals from every configured source.
type Collector interface {
	Collect(ctx context.Context) (map[source.SourceType][]source.Signal, error)
}

// ScannerConfig wires a Scanner. Everything but Collector and Engine is
// optional.
type ScannerConfig struct {
	Collector  Collector
	Engine     *trend.Engine
	Summarizer insight.Summarizer
	Reports    *report.Writer
	Alerts     *alert.Manager
	Digest     alert.DigestSender
	Calendar   []event.Entry
	MinScore   float64
	Log        zerolog.Logger
}

// Outcome describes one completed scan. Warnings lists the non-fatal
// failures of the scan's side stages.
type Outcome struct {
	Result       *trend.Result
	Brief        *insight.Brief
	Events       []event.Event
	SourceCounts map[source.SourceType]int
	ReportPath   string
	Alerts       int
	Emailed      bool
	Warnings     []string
	Duration     time.Duration
}

// Scanner runs one scan cycle: collect, rank, summarise, report and alert.
type Scanner struct {
	cfg     ScannerConfig
	running atomic.Bool
	now     func() time.Time
}

// NewScanner creates a new scanner.
func NewScanner(cfg ScannerConfig) *Scanner {
	return &Scanner{cfg: cfg, now: time.Now}
}

// Engine returns the ranking engine the scanner feeds.
func (s *Scanner) Engine() *trend.Engine { return s.cfg.Engine }

// RunOnce performs a full scan. Only collection cancellation and engine
// failures abort the scan; summariser, report and alert failures are
// recorded in Outcome.Warnings.
func (s *Scanner) RunOnce(ctx context.Context) (*Outcome, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	log := s.cfg.Log
	start := s.now()
	out := &Outcome{}

	bySource, err := s.cfg.Collector.Collect(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		out.warn("collect", err)
		log.Warn().Err(err).Msg("some sources failed")
	}
	out.SourceCounts = make(map[source.SourceType]int, len(bySource))
	for st, sigs := range bySource {
		out.SourceCounts[st] = len(sigs)
	}

	res, err := s.cfg.Engine.Run(ctx, bySource)
	if err != nil {
		return nil, fmt.Errorf("rank signals: %w", err)
	}
	out.Result = res

	out.Brief = s.summarize(ctx, res.Candidates, out)
	out.Events = event.Upcoming(s.cfg.Calendar, start)

	if s.cfg.Reports != nil {
		path, err := s.cfg.Reports.Write(report.Data{
			GeneratedAt:  start,
			Candidates:   res.Candidates,
			Brief:        out.Brief,
			History:      res.History,
			Events:       out.Events,
			SourceCounts: out.SourceCounts,
		})
		if err != nil {
			out.warn("report", err)
			log.Warn().Err(err).Msg("write report")
		} else {
			out.ReportPath = path
			log.Info().Str("path", path).Msg("report written")
		}
	}

	s.alert(ctx, res, out)
	s.mail(ctx, start, res, out)

	out.Duration = s.now().Sub(start)
	log.Info().
		Str("run", res.Run.ID).
		Int("signals", res.SignalCount).
		Int("candidates", len(res.Candidates)).
		Int("alerts", out.Alerts).
		Bool("emailed", out.Emailed).
		Dur("took", out.Duration).
		Msg("scan complete")
	return out, nil
}

func (s *Scanner) summarize(ctx context.Context, cands []*trend.Candidate, out *Outcome) *insight.Brief {
	if s.cfg.Summarizer == nil {
		return insight.Fallback(cands)
	}
	brief, err := s.cfg.Summarizer.Summarize(ctx, cands)
	if err != nil || brief == nil {
		if err == nil {
			err = errors.New("empty brief")
		}
		out.warn("summarize", err)
		s.cfg.Log.Warn().Err(err).Msg("summarizer failed, using fallback brief")
		return insight.Fallback(cands)
	}
	return brief
}

func (s *Scanner) alert(ctx context.Context, res *trend.Result, out *Outcome) {
	if s.cfg.Alerts == nil || !s.cfg.Alerts.HasNotifiers() {
		return
	}
	for _, n := range alert.Rising(res.Candidates, res.History, s.cfg.MinScore) {
		if err := s.cfg.Alerts.Broadcast(ctx, n); err != nil {
			out.warn("alert "+n.Title, err)
			s.cfg.Log.Warn().Err(err).Str("title", n.Title).Msg("alert failed")
			continue
		}
		out.Alerts++
		s.cfg.Log.Info().Str("title", n.Title).Float64("score", n.Score).Msg("alerted")
	}
}

func (s *Scanner) mail(ctx context.Context, at time.Time, res *trend.Result, out *Outcome) {
	if s.cfg.Digest == nil {
		return
	}
	err := s.cfg.Digest.SendDigest(ctx, alert.Digest{
		GeneratedAt:  at,
		Brief:        out.Brief,
		Candidates:   res.Candidates,
		Events:       out.Events,
		SourceCounts: out.SourceCounts,
	})
	if err != nil {
		out.warn("email", err)
		s.cfg.Log.Warn().Err(err).Msg("email digest failed")
		return
	}
	out.Emailed = true
	s.cfg.Log.Info().Msg("email digest sent")
}

func (o *Outcome) warn(stage string, err error) {
	o.Warnings = append(o.Warnings, fmt.Sprintf("%s: %v", stage, err))
}
