package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a single scan cycle.
type Job interface {
	RunOnce(ctx context.Context) (*Outcome, error)
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	job        Job
	expr       string
	schedule   cron.Schedule
	loc        *time.Location
	runOnStart bool
	log        zerolog.Logger
}

// New creates a scheduler for a standard five-field cron expression
// evaluated in loc.
func New(job Job, expr string, loc *time.Location, runOnStart bool, log zerolog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return &Scheduler{
		job:        job,
		expr:       expr,
		schedule:   sched,
		loc:        loc,
		runOnStart: runOnStart,
		log:        log,
	}, nil
}

// Next returns the first scheduled run after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run starts the scheduler loop. Blocks until ctx is cancelled and the
// running scan, if any, has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))
	c.Start()

	s.log.Info().
		Str("cron", s.expr).
		Str("timezone", s.loc.String()).
		Time("next", s.Next(time.Now())).
		Msg("scheduler running")

	if s.runOnStart {
		s.tick(ctx)
	}

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	out, err := s.job.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		s.log.Info().Msg("previous scan still running, skipping")
	case err != nil:
		s.log.Error().Err(err).Msg("scan failed")
	default:
		s.log.Info().
			Int("alerts", out.Alerts).
			Int("warnings", len(out.Warnings)).
			Time("next", s.Next(time.Now())).
			Msg("scheduled scan done")
	}
}
