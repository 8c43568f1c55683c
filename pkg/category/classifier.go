// Package category maps free text onto the retailer's keyword categories and
// rolls categories up into business segments.
package category

import (
	"strings"
	"unicode"
)

// Business segments.
const (
	SegmentGaming        = "Gaming"
	SegmentEntertainment = "Entertainment"
	SegmentPrepaid       = "Prepaid Money"
	SegmentMobileTopUp   = "Mobile Top-Up"
)

// General is used when a text matches no category.
const General = "General"

// Entry is one keyword category in table order.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type compiled struct {
	name     string
	keywords []string // normalized, space padded
}

// Classifier is an immutable keyword->category and category->segment lookup.
// It is safe for concurrent use.
type Classifier struct {
	entries  []compiled
	segments map[string]string
}

// New builds a classifier. Entry order is preserved in Match results.
func New(entries []Entry, segments map[string]string) *Classifier {
	c := &Classifier{segments: make(map[string]string, len(segments))}
	for k, v := range segments {
		c.segments[k] = v
	}

	for _, e := range entries {
		ce := compiled{name: e.Name}
		for _, kw := range e.Keywords {
			k := normalizeKey(kw)
			if k == "" {
				continue
			}
			ce.keywords = append(ce.keywords, " "+k+" ")
		}
		if len(ce.keywords) > 0 {
			c.entries = append(c.entries, ce)
		}
	}
	return c
}

// NewDefault builds a classifier from the built-in tables.
func NewDefault() *Classifier {
	return New(DefaultEntries(), DefaultSegments())
}

// Match returns every category whose keywords occur in text as whole words,
// in table order.
func (c *Classifier) Match(text string) []string {
	t := " " + normalizeKey(text) + " "
	if strings.TrimSpace(t) == "" {
		return nil
	}

	var out []string
	for _, e := range c.entries {
		for _, kw := range e.keywords {
			if strings.Contains(t, kw) {
				out = append(out, e.name)
				break
			}
		}
	}
	return out
}

// MatchOr returns Match(text), or fallback when nothing matched.
func (c *Classifier) MatchOr(text string, fallback ...string) []string {
	if cats := c.Match(text); len(cats) > 0 {
		return cats
	}
	return fallback
}

// Segment returns the business segment for a category, or "" when unknown.
func (c *Classifier) Segment(cat string) string {
	return c.segments[cat]
}

// Categories lists category names in table order.
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.name
	}
	return out
}

// normalizeKey lowercases and replaces every non letter/digit with a single
// space, so "CS:GO" and "cs go" compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
