package trend

import (
	"github.com/elonfeng/rechargeradar/internal/store"
)

// Status describes how a candidate moved relative to the previous run.
type Status string

const (
	StatusNew  Status = "new"
	StatusUp   Status = "up"
	StatusDown Status = "down"
	StatusSame Status = "same"
)

// Movement is one current snapshot entry compared with the previous run.
type Movement struct {
	Title     string  `json:"title"`
	Rank      int     `json:"rank"`
	PrevRank  int     `json:"prev_rank,omitempty"`
	Score     float64 `json:"score"`
	PrevScore float64 `json:"prev_score,omitempty"`
	Delta     float64 `json:"delta"`
	Status    Status  `json:"status"`
}

// History is the week-over-week view of two snapshots.
type History struct {
	Movements []Movement            `json:"movements"`
	Dropped   []store.SnapshotEntry `json:"dropped"`
}

// Rising reports whether the entry is new or climbed in rank.
func (m Movement) Rising() bool {
	return m.Status == StatusNew || m.Status == StatusUp
}

// Snapshot returns the first n ranked candidates as snapshot entries with
// one-based ranks. n <= 0 keeps every candidate.
func Snapshot(cands []*Candidate, n int) []store.SnapshotEntry {
	if n <= 0 || n > len(cands) {
		n = len(cands)
	}
	out := make([]store.SnapshotEntry, 0, n)
	for i, c := range cands[:n] {
		out = append(out, store.SnapshotEntry{
			Rank:        i + 1,
			Title:       c.Title,
			Score:       c.Score,
			Sources:     c.Sources,
			SourceNames: c.SourceNames,
			Category:    c.Category,
			BizCategory: c.BizCategory,
			URL:         c.URL,
		})
	}
	return out
}

// Compare matches every current entry against the previous snapshot by title.
// Each previous entry is claimed at most once, best rank first. Previous
// entries left unclaimed are reported as dropped.
func Compare(current, previous []store.SnapshotEntry, m Matcher) History {
	claimed := make([]bool, len(previous))
	h := History{Movements: make([]Movement, 0, len(current))}

	for _, cur := range current {
		mv := Movement{
			Title:  cur.Title,
			Rank:   cur.Rank,
			Score:  cur.Score,
			Status: StatusNew,
		}

		for i, prev := range previous {
			if claimed[i] || !m.Match(cur.Title, prev.Title) {
				continue
			}
			claimed[i] = true
			mv.PrevRank = prev.Rank
			mv.PrevScore = prev.Score
			mv.Delta = round1(cur.Score - prev.Score)
			switch {
			case cur.Rank < prev.Rank:
				mv.Status = StatusUp
			case cur.Rank > prev.Rank:
				mv.Status = StatusDown
			default:
				mv.Status = StatusSame
			}
			break
		}
		if mv.Status == StatusNew {
			mv.Delta = cur.Score
		}
		h.Movements = append(h.Movements, mv)
	}

	for i, prev := range previous {
		if !claimed[i] {
			h.Dropped = append(h.Dropped, prev)
		}
	}
	return h
}
