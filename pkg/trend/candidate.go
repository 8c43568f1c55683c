package trend

import (
	"sort"

	"github.com/elonfeng/rechargeradar/pkg/source"
)

// OtherSegment is the business segment for candidates whose categories map to
// no known segment.
const OtherSegment = "Other"

// Candidate is a cluster of signals judged to refer to the same topic.
type Candidate struct {
	Title         string          `json:"title"`
	Signals       []source.Signal `json:"signals"`
	Sources       int             `json:"sources"`
	SourceNames   []string        `json:"source_names"`
	Categories    []string        `json:"categories"`
	Category      string          `json:"category"`
	BizCategories []string        `json:"biz_categories"`
	BizCategory   string          `json:"biz_category"`
	Score         float64         `json:"score"`
	URL           string          `json:"url"`

	norm    string
	numbers []string
}

func newCandidate(s source.Signal, norm string, numbers []string) *Candidate {
	return &Candidate{
		Title:   s.Title,
		Signals: []source.Signal{s},
		norm:    norm,
		numbers: numbers,
	}
}

// tally counts values by frequency and returns them most frequent first.
// Equal counts keep first-seen order.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(v string) {
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally) ranked() []string {
	out := append([]string(nil), t.order...)
	sort.SliceStable(out, func(i, j int) bool {
		return t.counts[out[i]] > t.counts[out[j]]
	})
	return out
}
