package trend

import "github.com/elonfeng/rechargeradar/pkg/source"

// Range is the floor/ceiling band a source's scores are rescaled into.
type Range struct {
	Floor   float64 `yaml:"floor" json:"floor"`
	Ceiling float64 `yaml:"ceiling" json:"ceiling"`
}

// FullRange is used for sources missing from the range table.
var FullRange = Range{Floor: 0, Ceiling: 100}

// Tables holds the hand-tuned scoring configuration. Build it once at startup
// and treat it as read-only afterwards.
type Tables struct {
	Weights       map[source.SourceType]float64
	DefaultWeight float64

	Ranges map[source.SourceType]Range

	Confidence        map[int]float64
	DefaultConfidence float64

	// Aliases collapse raw source names that represent the same origin.
	Aliases map[source.SourceType]source.SourceType

	URLPriority        map[source.SourceType]int
	DefaultURLPriority int

	MatchThreshold     float64
	PrefilterThreshold float64

	// TopN bounds the persisted snapshot.
	TopN int
}

// DefaultTables returns the current tuning.
func DefaultTables() *Tables {
	return &Tables{
		Weights: map[source.SourceType]float64{
			source.SourceTrends:      0.10,
			source.SourceOxylabsNews: 0.16,
			source.SourceNews:        0.10,
			source.SourceReddit:      0.08,
			source.SourceSteam:       0.08,
			source.SourceYouTube:     0.07,
			source.SourceWiki:        0.01,
			source.SourceCompetitor:  0.05,
			source.SourceCheapShark:  0.05,
			source.SourceSteamSpy:    0.05,
			source.SourceGamerPower:  0.04,
			source.SourceEpic:        0.05,
			source.SourceGOG:         0.04,
			source.SourceHumble:      0.04,
			source.SourceFreeToGame:  0.03,
			source.SourceAnime:       0.05,
		},
		DefaultWeight: 0.03,
		Ranges: map[source.SourceType]Range{
			source.SourceTrends:      {0, 100},
			source.SourceOxylabsNews: {40, 90},
			source.SourceNews:        {40, 85},
			source.SourceReddit:      {30, 80},
			source.SourceSteam:       {30, 90},
			source.SourceSteamNew:    {30, 75},
			source.SourceYouTube:     {30, 80},
			source.SourceWiki:        {20, 90},
			source.SourceCompetitor:  {20, 60},
			source.SourceCheapShark:  {20, 80},
			source.SourceSteamSpy:    {20, 90},
			source.SourceGamerPower:  {30, 80},
			source.SourceEpic:        {40, 90},
			source.SourceGOG:         {20, 70},
			source.SourceHumble:      {20, 70},
			source.SourceFreeToGame:  {10, 60},
			source.SourceAnime:       {20, 80},
		},
		Confidence: map[int]float64{
			1: 0.55,
			2: 0.75,
			3: 0.90,
			4: 1.0,
		},
		DefaultConfidence: 1.0,
		Aliases: map[source.SourceType]source.SourceType{
			"google":              source.SourceNews,
			"google_news":         source.SourceNews,
			source.SourceSteamNew: source.SourceSteam,
		},
		URLPriority: map[source.SourceType]int{
			source.SourceNews:        1,
			source.SourceOxylabsNews: 1,
			source.SourceReddit:      2,
			source.SourceYouTube:     3,
			source.SourceSteam:       4,
			source.SourceGOG:         5,
			source.SourceHumble:      6,
			source.SourceCheapShark:  7,
			source.SourceEpic:        8,
			source.SourceAnime:       9,
			source.SourceGamerPower:  10,
			source.SourceSteamNew:    11,
			source.SourceSteamSpy:    12,
			source.SourceFreeToGame:  13,
			source.SourceCompetitor:  14,
			source.SourceTrends:      15,
			source.SourceWiki:        99,
		},
		DefaultURLPriority: 20,
		MatchThreshold:     0.82,
		PrefilterThreshold: 0.25,
		TopN:               30,
	}
}

// Canonical collapses a raw source name to its canonical alias.
func (t *Tables) Canonical(st source.SourceType) source.SourceType {
	if c, ok := t.Aliases[st]; ok {
		return c
	}
	return st
}

// Weight returns the importance weight for a canonical source.
func (t *Tables) Weight(st source.SourceType) float64 {
	if w, ok := t.Weights[st]; ok {
		return w
	}
	return t.DefaultWeight
}

// RangeFor returns the normalization band for a source.
func (t *Tables) RangeFor(st source.SourceType) Range {
	if r, ok := t.Ranges[st]; ok {
		return r
	}
	return FullRange
}

// Multiplier returns the confidence multiplier for a distinct-source count.
func (t *Tables) Multiplier(sources int) float64 {
	if m, ok := t.Confidence[sources]; ok {
		return m
	}
	return t.DefaultConfidence
}

func (t *Tables) urlPriority(st source.SourceType) int {
	if p, ok := t.URLPriority[st]; ok {
		return p
	}
	return t.DefaultURLPriority
}
