package trend

import (
	"math"

	"github.com/elonfeng/rechargeradar/pkg/source"
)

// Normalize rescales each source's raw scores into that source's configured
// band via min-max, so scores become comparable across sources. Sources whose
// scores are all equal land on the band midpoint. Results are clamped to
// [0,100] and rounded to one decimal.
//
// The input is left untouched; the returned map holds cloned signals.
func Normalize(bySource map[source.SourceType][]source.Signal, t *Tables) map[source.SourceType][]source.Signal {
	out := make(map[source.SourceType][]source.Signal, len(bySource))

	for st, sigs := range bySource {
		if len(sigs) == 0 {
			continue
		}

		r := t.RangeFor(st)
		lo, hi := sigs[0].Score, sigs[0].Score
		for _, s := range sigs[1:] {
			lo = math.Min(lo, s.Score)
			hi = math.Max(hi, s.Score)
		}

		normed := make([]source.Signal, len(sigs))
		for i, s := range sigs {
			c := s.Clone()
			var v float64
			if hi > lo {
				v = r.Floor + (s.Score-lo)/(hi-lo)*(r.Ceiling-r.Floor)
			} else {
				v = (r.Floor + r.Ceiling) / 2
			}
			c.Score = round1(clamp(v, 0, 100))
			normed[i] = c
		}
		out[st] = normed
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
