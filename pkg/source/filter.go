package source

import "strings"

// DefaultPersonalPhrases mark first-person or help-desk posts, which say
// little about what a broad audience wants to buy.
var DefaultPersonalPhrases = []string{
	"my", "i", "i'm", "i've", "me", "just got", "finally",
	"my friend", "helped me", "unpopular opinion", "does anyone",
	"question about", "need help", "eli5", "ama",
}

// Filter drops titles that read as personal posts rather than news.
type Filter struct {
	exclude []string
}

// NewFilter creates a filter with the default phrases plus extras.
func NewFilter(extraExclude []string) *Filter {
	phrases := make([]string, 0, len(DefaultPersonalPhrases)+len(extraExclude))
	phrases = append(phrases, DefaultPersonalPhrases...)
	phrases = append(phrases, extraExclude...)

	exclude := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			exclude = append(exclude, " "+p+" ")
		}
	}
	return &Filter{exclude: exclude}
}

// MassAppeal reports whether a title is of general interest. Phrases match on
// word boundaries, so "Wii" does not trip on "i".
func (f *Filter) MassAppeal(title string) bool {
	if f == nil {
		return true
	}
	t := " " + strings.Join(strings.FieldsFunc(strings.ToLower(title), isSeparator), " ") + " "
	for _, ex := range f.exclude {
		if strings.Contains(t, ex) {
			return false
		}
	}
	return true
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ',', '.', '!', '?', ':', ';', '"', '(', ')', '[', ']', '-':
		return true
	}
	return false
}
