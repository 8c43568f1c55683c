package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers     = 6
	DefaultTaskTimeout = 90 * time.Second
)

// Collector runs sources with bounded parallelism. A failing or panicking
// source contributes whatever it returned before failing and never stops the
// others.
type Collector struct {
	sources []Source
	workers int
	timeout time.Duration
	log     zerolog.Logger
}

// NewCollector creates a collector. Non-positive workers or timeout fall back
// to the defaults.
func NewCollector(sources []Source, workers int, timeout time.Duration, log zerolog.Logger) *Collector {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &Collector{sources: sources, workers: workers, timeout: timeout, log: log}
}

// Sources returns the configured sources in registration order.
func (c *Collector) Sources() []Source {
	return c.sources
}

// Only returns a collector restricted to the named sources. An empty list
// keeps every source.
func (c *Collector) Only(names []string) *Collector {
	if len(names) == 0 {
		return c
	}
	want := make(map[SourceType]bool, len(names))
	for _, n := range names {
		want[SourceType(n)] = true
	}
	var kept []Source
	for _, s := range c.sources {
		if want[s.Name()] {
			kept = append(kept, s)
		}
	}
	return &Collector{sources: kept, workers: c.workers, timeout: c.timeout, log: c.log}
}

// Collect runs every source and returns signals keyed by source. Every source
// has an entry, empty when it failed. The returned error joins the per-source
// failures and is informational; the map is always usable.
func (c *Collector) Collect(ctx context.Context) (map[SourceType][]Signal, error) {
	var (
		mu   sync.Mutex
		out  = make(map[SourceType][]Signal, len(c.sources))
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(c.workers)

	for _, src := range c.sources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			start := time.Now()
			sigs, err := c.run(ctx, src)

			mu.Lock()
			out[src.Name()] = append(out[src.Name()], sigs...)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			}
			mu.Unlock()

			ev := c.log.Info()
			if err != nil {
				ev = c.log.Warn().Err(err)
			}
			ev.Str("source", string(src.Name())).
				Int("signals", len(sigs)).
				Dur("took", time.Since(start)).
				Msg("source collected")
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	for _, src := range c.sources {
		if _, ok := out[src.Name()]; !ok {
			out[src.Name()] = nil
		}
	}
	return out, errors.Join(errs...)
}

func (c *Collector) run(ctx context.Context, src Source) (sigs []Signal, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			sigs = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	sigs, err = src.Collect(ctx)
	for i := range sigs {
		sigs[i].Source = src.Name()
	}
	return sigs, err
}
