package insight

import (
	"fmt"
	"strings"

	"github.com/elonfeng/rechargeradar/pkg/trend"
)

// Fallback builds a deterministic brief straight from the ranked candidates.
// It is used when no provider is configured or the provider call fails.
func Fallback(cands []*trend.Candidate) *Brief {
	exec := defaultExecutive()
	b := &Brief{
		Summary:     exec.Summary,
		Actions:     exec.Actions,
		Predictions: exec.Predictions,
		Risks:       exec.Risks,
		Provider:    "fallback",
		Fallback:    true,
	}
	if len(cands) == 0 {
		b.Summary = "No trending candidates this run."
		return b
	}

	for i, c := range cands {
		if i == maxOpportunities {
			break
		}
		urgency := "medium"
		if c.Score > 50 {
			urgency = "high"
		}
		b.Opportunities = append(b.Opportunities, Opportunity{
			Title:         c.Title,
			Category:      c.Category,
			Urgency:       urgency,
			Confidence:    min(c.Score/100, 1),
			WhyNow:        fmt.Sprintf("Across %d sources", c.Sources),
			RevenueSignal: "Multiple signals indicate purchase intent",
			Candidate:     c,
		})
	}
	return b
}

func defaultExecutive() executive {
	return executive{
		Summary: "Multiple revenue opportunities identified.",
		Actions: actionList{
			"SEO Team: act on top opportunities",
			"Content Team: update landing pages",
			"Marketing Team: monitor competitors",
		},
		Predictions: []string{"Watch for major updates"},
		Risks:       []string{"Competitor pricing"},
	}
}

// MatchCandidate returns the candidate whose title is most similar to title,
// or nil when no candidate scores above the cutoff. The best match wins, not
// the first one above the cutoff.
func MatchCandidate(title string, cands []*trend.Candidate) *trend.Candidate {
	a := matchKey(title)
	if a == "" {
		return nil
	}

	var best *trend.Candidate
	bestRatio := 0.0
	for _, c := range cands {
		b := matchKey(c.Title)
		if b == "" {
			continue
		}
		if r := trend.Ratio(a, b); r > bestRatio {
			best, bestRatio = c, r
		}
	}
	if bestRatio > matchCutoff {
		return best
	}
	return nil
}

// matchKey lowercases s and keeps ASCII letters, digits and spaces.
func matchKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		}
		return -1
	}, strings.ToLower(s))
}
