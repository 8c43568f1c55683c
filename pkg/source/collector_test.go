package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name SourceType
	fn   func(ctx context.Context) ([]Signal, error)
}

func (f fakeSource) Name() SourceType { return f.name }

func (f fakeSource) Collect(ctx context.Context) ([]Signal, error) { return f.fn(ctx) }

func fixed(name SourceType, titles ...string) fakeSource {
	return fakeSource{name: name, fn: func(context.Context) ([]Signal, error) {
		var out []Signal
		for _, t := range titles {
			out = append(out, Signal{Title: t, Score: 50})
		}
		return out, nil
	}}
}

func TestCollectorIsolatesFailures(t *testing.T) {
	sources := []Source{
		fixed(SourceSteam, "Hades", "Elden Ring"),
		fakeSource{name: SourceEpic, fn: func(context.Context) ([]Signal, error) {
			return nil, errors.New("boom")
		}},
		fakeSource{name: SourceGOG, fn: func(context.Context) ([]Signal, error) {
			panic("bad json")
		}},
		fakeSource{name: SourceReddit, fn: func(ctx context.Context) ([]Signal, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
		fakeSource{name: SourceNews, fn: func(context.Context) ([]Signal, error) {
			return []Signal{{Title: "partial"}}, errors.New("one feed down")
		}},
	}

	c := NewCollector(sources, 3, 50*time.Millisecond, zerolog.Nop())
	got, err := c.Collect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "epic: boom")
	assert.Contains(t, err.Error(), "gog: panic: bad json")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, got, 5)
	assert.Len(t, got[SourceSteam], 2)
	assert.Empty(t, got[SourceEpic])
	assert.Empty(t, got[SourceGOG])
	assert.Empty(t, got[SourceReddit])
	require.Len(t, got[SourceNews], 1)

	for _, s := range got[SourceSteam] {
		assert.Equal(t, SourceSteam, s.Source)
	}
}

func TestCollectorBoundsParallelism(t *testing.T) {
	var running, peak int32
	var sources []Source
	for _, st := range []SourceType{SourceSteam, SourceEpic, SourceGOG, SourceHumble, SourceAnime, SourceWiki} {
		sources = append(sources, fakeSource{name: st, fn: func(context.Context) ([]Signal, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil, nil
		}})
	}

	_, err := NewCollector(sources, 2, time.Second, zerolog.Nop()).Collect(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestCollectorOnly(t *testing.T) {
	c := NewCollector([]Source{fixed(SourceSteam, "a"), fixed(SourceEpic, "b")}, 0, 0, zerolog.Nop())

	only := c.Only([]string{"epic"})
	require.Len(t, only.Sources(), 1)
	assert.Equal(t, SourceEpic, only.Sources()[0].Name())

	assert.Len(t, c.Only(nil).Sources(), 2)
	assert.Equal(t, DefaultWorkers, c.workers)
	assert.Equal(t, DefaultTaskTimeout, c.timeout)
}

func TestCollectorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewCollector([]Source{fixed(SourceSteam, "a")}, 1, time.Second, zerolog.Nop()).Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, got, SourceSteam)
	assert.Empty(t, got[SourceSteam])
}
