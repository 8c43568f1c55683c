package source

import (
	"context"
	"sort"
)

// SourceType identifies which fetcher a signal came from.
type SourceType string

const (
	SourceTrends      SourceType = "trends"
	SourceOxylabsNews SourceType = "oxylabs_news"
	SourceNews        SourceType = "news"
	SourceReddit      SourceType = "reddit"
	SourceSteam       SourceType = "steam"
	SourceSteamNew    SourceType = "steam_new"
	SourceYouTube     SourceType = "youtube"
	SourceWiki        SourceType = "wiki"
	SourceCompetitor  SourceType = "competitor"
	SourceCheapShark  SourceType = "cheapshark"
	SourceSteamSpy    SourceType = "steamspy"
	SourceGamerPower  SourceType = "gamerpower"
	SourceEpic        SourceType = "epic"
	SourceGOG         SourceType = "gog"
	SourceHumble      SourceType = "humble"
	SourceFreeToGame  SourceType = "freetogame"
	SourceAnime       SourceType = "anime"
)

// maxTitleLen bounds signal titles; feeds occasionally carry whole paragraphs.
const maxTitleLen = 150

// Meta carries the structured part of a signal's metadata. Extra holds
// source-specific display fields (discounts, view counts, channel names).
type Meta struct {
	Categories       []string       `json:"cats"`
	BusinessCategory string         `json:"biz_cat,omitempty"`
	Fresh            *bool          `json:"fresh,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Signal is one title/claim from one source with a source-native score.
type Signal struct {
	Source SourceType `json:"source"`
	Title  string     `json:"title"`
	Desc   string     `json:"desc"`
	URL    string     `json:"url"`
	Score  float64    `json:"score"`
	Meta   Meta       `json:"meta"`
}

// Clone returns a copy that shares no slices or maps with s.
func (s Signal) Clone() Signal {
	out := s
	if s.Meta.Categories != nil {
		out.Meta.Categories = append([]string(nil), s.Meta.Categories...)
	}
	if s.Meta.Fresh != nil {
		f := *s.Meta.Fresh
		out.Meta.Fresh = &f
	}
	if s.Meta.Extra != nil {
		out.Meta.Extra = make(map[string]any, len(s.Meta.Extra))
		for k, v := range s.Meta.Extra {
			out.Meta.Extra[k] = v
		}
	}
	return out
}

// Source is the interface every fetcher must implement.
type Source interface {
	Name() SourceType
	Collect(ctx context.Context) ([]Signal, error)
}

// AllSourceTypes returns all known source types.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTrends,
		SourceOxylabsNews,
		SourceNews,
		SourceReddit,
		SourceSteam,
		SourceSteamNew,
		SourceYouTube,
		SourceWiki,
		SourceCompetitor,
		SourceCheapShark,
		SourceSteamSpy,
		SourceGamerPower,
		SourceEpic,
		SourceGOG,
		SourceHumble,
		SourceFreeToGame,
		SourceAnime,
	}
}

// SortedTypes returns the keys of a signal map in a stable order so that
// downstream processing does not depend on map iteration.
func SortedTypes(bySource map[SourceType][]Signal) []SourceType {
	rank := make(map[SourceType]int)
	for i, st := range AllSourceTypes() {
		rank[st] = i
	}
	keys := make([]SourceType, 0, len(bySource))
	for k := range bySource {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Count returns the total number of signals across all sources.
func Count(bySource map[SourceType][]Signal) int {
	n := 0
	for _, sigs := range bySource {
		n += len(sigs)
	}
	return n
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}

func boolPtr(b bool) *bool { return &b }
