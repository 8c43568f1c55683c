package trend

import (
	"math"
	"sort"

	"github.com/elonfeng/rechargeradar/pkg/source"
)

// Scorer computes composite candidate scores.
type Scorer struct {
	tables *Tables
}

// NewScorer creates a scorer over the given tables.
func NewScorer(t *Tables) *Scorer {
	return &Scorer{tables: t}
}

// Score sets every candidate's composite score and returns the candidates
// sorted by score, highest first. Equal scores keep their input order.
func (s *Scorer) Score(cands []*Candidate) []*Candidate {
	for _, c := range cands {
		c.Score = s.composite(c)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands
}

// composite is the weighted mean of per-source mean scores, weighted only by
// the sources actually present, times the corroboration multiplier.
func (s *Scorer) composite(c *Candidate) float64 {
	var order []source.SourceType
	sums := make(map[source.SourceType]float64)
	counts := make(map[source.SourceType]int)
	for _, sig := range c.Signals {
		st := s.tables.Canonical(sig.Source)
		if counts[st] == 0 {
			order = append(order, st)
		}
		sums[st] += sig.Score
		counts[st]++
	}

	var weighted, totalWeight float64
	for _, st := range order {
		w := s.tables.Weight(st)
		weighted += sums[st] / float64(counts[st]) * w
		totalWeight += w
	}

	base := 0.0
	if totalWeight > 0 {
		base = weighted / totalWeight
	}

	return round1(math.Min(base*s.tables.Multiplier(c.Sources), 100))
}
