package trend

import (
	"github.com/elonfeng/rechargeradar/pkg/category"
	"github.com/elonfeng/rechargeradar/pkg/source"
)

// Deduplicator groups signals that refer to the same topic into candidates.
//
// Matching is blocked by each signal's first category: two signals are only
// ever compared when they share it, and uncategorized signals are matched
// among themselves after every categorized bucket.
type Deduplicator struct {
	tables     *Tables
	classifier *category.Classifier
	matcher    Matcher
}

// NewDeduplicator creates a deduplicator. classifier may be nil, in which case
// candidate categories come from signal metadata only.
func NewDeduplicator(t *Tables, c *category.Classifier) *Deduplicator {
	return &Deduplicator{
		tables:     t,
		classifier: c,
		matcher:    NewMatcher(t.MatchThreshold),
	}
}

type bucket struct {
	signals []source.Signal
	cands   []*Candidate
}

// Dedup partitions all signals into candidates. Every input signal ends up in
// exactly one candidate. Candidates are returned unscored, grouped by bucket
// in order of first appearance.
func (d *Deduplicator) Dedup(bySource map[source.SourceType][]source.Signal) []*Candidate {
	var keys []string
	buckets := make(map[string]*bucket)
	var uncategorized bucket

	for _, st := range source.SortedTypes(bySource) {
		for _, s := range bySource[st] {
			if len(s.Meta.Categories) == 0 || s.Meta.Categories[0] == "" {
				uncategorized.signals = append(uncategorized.signals, s)
				continue
			}
			k := s.Meta.Categories[0]
			b, ok := buckets[k]
			if !ok {
				b = &bucket{}
				buckets[k] = b
				keys = append(keys, k)
			}
			b.signals = append(b.signals, s)
		}
	}

	var out []*Candidate
	for _, k := range keys {
		out = append(out, d.process(buckets[k])...)
	}
	out = append(out, d.process(&uncategorized)...)

	for _, c := range out {
		d.finalize(c)
	}
	return out
}

// process matches a bucket's signals in arrival order. The first signal of a
// group founds the candidate and names it.
func (d *Deduplicator) process(b *bucket) []*Candidate {
	for _, s := range b.signals {
		norm := NormalizeTitle(s.Title)
		nums := NumberTokens(norm)
		if best := d.bestMatch(b.cands, norm, nums); best != nil {
			best.Signals = append(best.Signals, s)
			continue
		}
		b.cands = append(b.cands, newCandidate(s, norm, nums))
	}
	return b.cands
}

// bestMatch returns the candidate with the highest similarity to norm, or nil
// when none reaches the match threshold.
func (d *Deduplicator) bestMatch(cands []*Candidate, norm string, nums []string) *Candidate {
	if norm == "" {
		return nil
	}

	var best *Candidate
	bestRatio := 0.0
	for _, c := range cands {
		if c.norm == "" || NumbersConflict(nums, c.numbers) {
			continue
		}
		if Jaccard(norm, c.norm) < d.tables.PrefilterThreshold {
			continue
		}
		if r := Similarity(norm, c.norm); r > bestRatio {
			best, bestRatio = c, r
		}
	}

	if best == nil || !d.matcher.accepts(bestRatio) {
		return nil
	}
	return best
}

// finalize derives the aggregate fields of a candidate from its signals.
func (d *Deduplicator) finalize(c *Candidate) {
	seen := make(map[source.SourceType]bool)
	c.SourceNames = c.SourceNames[:0]
	cats := newTally()
	bizs := newTally()

	bestPrio := 0
	c.URL = ""

	for _, s := range c.Signals {
		st := d.tables.Canonical(s.Source)
		if !seen[st] {
			seen[st] = true
			c.SourceNames = append(c.SourceNames, string(st))
		}

		sigCats := d.signalCategories(s)
		mapped := false
		for _, cat := range sigCats {
			cats.add(cat)
			if seg := d.segment(cat); seg != "" {
				bizs.add(seg)
				mapped = true
			}
		}
		if !mapped && s.Meta.BusinessCategory != "" {
			bizs.add(s.Meta.BusinessCategory)
		}

		if s.URL != "" {
			p := d.tables.urlPriority(s.Source)
			if c.URL == "" || p < bestPrio {
				c.URL, bestPrio = s.URL, p
			}
		}
	}

	c.Sources = len(seen)

	c.Categories = cats.ranked()
	c.Category = category.General
	if len(c.Categories) > 0 {
		c.Category = c.Categories[0]
	}

	c.BizCategories = bizs.ranked()
	c.BizCategory = OtherSegment
	if len(c.BizCategories) > 0 {
		c.BizCategory = c.BizCategories[0]
	}
}

// signalCategories returns the distinct categories of a signal: its metadata
// categories first, then any the classifier finds in the title.
func (d *Deduplicator) signalCategories(s source.Signal) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(cat string) {
		if cat != "" && !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}

	for _, cat := range s.Meta.Categories {
		add(cat)
	}
	if d.classifier != nil {
		for _, cat := range d.classifier.Match(s.Title) {
			add(cat)
		}
	}
	return out
}

func (d *Deduplicator) segment(cat string) string {
	if d.classifier == nil {
		return ""
	}
	return d.classifier.Segment(cat)
}
