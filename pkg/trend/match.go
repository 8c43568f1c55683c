package trend

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultMatchThreshold is the similarity cutoff for two titles to be treated
// as the same topic. An earlier tuning used 0.72, which merged unrelated
// releases far too often.
const DefaultMatchThreshold = 0.82

// romanNumerals maps "ii".."xl" to their digit form. "i" is left alone since
// it is almost always the pronoun.
var romanNumerals = buildRomanNumerals(2, 40)

func buildRomanNumerals(from, to int) map[string]string {
	m := make(map[string]string, to-from+1)
	for n := from; n <= to; n++ {
		m[toRoman(n)] = strconv.Itoa(n)
	}
	return m
}

func toRoman(n int) string {
	vals := []int{40, 10, 9, 5, 4, 1}
	syms := []string{"xl", "x", "ix", "v", "iv", "i"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

// NormalizeTitle lowercases, drops everything outside [a-z0-9 ], collapses
// whitespace and rewrites small Roman numerals as digits, so "GTA VI" and
// "gta 6" normalize identically.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if d, ok := romanNumerals[w]; ok {
			words[i] = d
		}
	}
	return strings.Join(words, " ")
}

// NumberTokens returns the maximal digit runs of a normalized title in order.
func NumberTokens(norm string) []string {
	var out []string
	start := -1
	for i := 0; i < len(norm); i++ {
		isDigit := norm[i] >= '0' && norm[i] <= '9'
		switch {
		case isDigit && start < 0:
			start = i
		case !isDigit && start >= 0:
			out = append(out, norm[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, norm[start:])
	}
	return out
}

// NumbersConflict reports whether both titles carry version/sequel numbers
// and those numbers differ. A title without numbers never conflicts.
func NumbersConflict(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// Ratio is the Ratcliff/Obershelp character similarity of two strings in
// [0,1]. Arguments are put in a canonical order first so the result is
// symmetric.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	m := difflib.NewMatcherWithJunk(strings.Split(a, ""), strings.Split(b, ""), false, nil)
	return m.Ratio()
}

// Similarity is the score compared against the match threshold.
func Similarity(a, b string) float64 {
	return Ratio(a, b)
}

// Jaccard returns the token-set overlap of two normalized titles.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// Matcher decides whether two free-text titles refer to the same topic.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a matcher; a non-positive threshold selects the default.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	return Matcher{Threshold: threshold}
}

// Match reports whether a and b name the same topic. Titles whose version
// numbers disagree never match, however similar the text.
func (m Matcher) Match(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if NumbersConflict(NumberTokens(na), NumberTokens(nb)) {
		return false
	}
	return m.accepts(Similarity(na, nb))
}

func (m Matcher) accepts(ratio float64) bool {
	return ratio >= m.Threshold
}
