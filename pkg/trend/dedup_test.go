package trend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/rechargeradar/pkg/category"
	"github.com/elonfeng/rechargeradar/pkg/source"
)

// testClassifier has segments but no keywords, so candidate categories come
// only from signal metadata.
func testClassifier() *category.Classifier {
	return category.New(nil, map[string]string{
		"GTA":          category.SegmentGaming,
		"Steam":        category.SegmentGaming,
		"Xbox":         category.SegmentGaming,
		"EA Sports FC": category.SegmentGaming,
		"Netflix":      category.SegmentEntertainment,
		"Free Fire":    category.SegmentMobileTopUp,
	})
}

// gtaScenario is three wordings of one headline whose pairwise character
// ratios all clear the default threshold. News arrives first.
func gtaScenario() map[source.SourceType][]source.Signal {
	return map[source.SourceType][]source.Signal{
		source.SourceSteam:  {sig(source.SourceSteam, "GTA 6 trailer breaks records", 80, "GTA")},
		source.SourceNews:   {sig(source.SourceNews, "GTA 6 trailer breaks record", 70, "GTA")},
		source.SourceReddit: {sig(source.SourceReddit, "GTA 6 trailer break records", 60, "GTA")},
	}
}

func TestDedupMergesCorroboratingSignals(t *testing.T) {
	tables := DefaultTables()
	d := NewDeduplicator(tables, testClassifier())

	cands := d.Dedup(gtaScenario())

	require.Len(t, cands, 1)
	c := cands[0]
	assert.Equal(t, "GTA 6 trailer breaks record", c.Title)
	require.Len(t, c.Signals, 3)
	assert.Equal(t, source.SourceNews, c.Signals[0].Source)
	assert.Equal(t, source.SourceReddit, c.Signals[1].Source)
	assert.Equal(t, source.SourceSteam, c.Signals[2].Source)
	assert.Equal(t, 3, c.Sources)
	assert.Equal(t, 0.90, tables.Multiplier(c.Sources))
	assert.Equal(t, "GTA", c.Category)
	assert.Equal(t, category.SegmentGaming, c.BizCategory)

	scored := NewScorer(tables).Score(cands)
	// (80*.08 + 70*.10 + 60*.08) / .26 = 70, times 0.90
	assert.InDelta(t, 63.0, scored[0].Score, 1e-9)
}

func TestDedupFirstArrivalNamesCandidate(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews: {
			sig(source.SourceNews, "GTA 6 trailer breaks records", 70, "GTA"),
			sig(source.SourceNews, "GTA 6 trailer breaks record", 65, "GTA"),
		},
	})

	require.Len(t, cands, 1)
	assert.Equal(t, "GTA 6 trailer breaks records", cands[0].Title)
	require.Len(t, cands[0].Signals, 2)
	assert.Equal(t, "GTA 6 trailer breaks records", cands[0].Signals[0].Title)
	assert.Equal(t, "GTA 6 trailer breaks record", cands[0].Signals[1].Title)
}

func TestDedupSubsetTitlesStaySeparate(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	// Every word of the short title appears in the longer ones, but the
	// character ratios are 0.8125 and 0.63.
	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews: {
			sig(source.SourceNews, "GTA 6 trailer drops", 70, "GTA"),
			sig(source.SourceNews, "GTA 6 trailer", 65, "GTA"),
			sig(source.SourceNews, "My thoughts on GTA 6 trailer", 60, "GTA"),
		},
	})

	require.Len(t, cands, 3)
	assert.Equal(t, "GTA 6 trailer drops", cands[0].Title)
	assert.Equal(t, "GTA 6 trailer", cands[1].Title)
	assert.Equal(t, "My thoughts on GTA 6 trailer", cands[2].Title)
}

func TestDedupRejectsVersionConflicts(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, "EA FC 26 Ultimate Team", 70, "EA Sports FC")},
		source.SourceReddit: {sig(source.SourceReddit, "EA FC 25 Ultimate Team", 60, "EA Sports FC")},
	})

	require.Len(t, cands, 2)
	assert.Equal(t, "EA FC 26 Ultimate Team", cands[0].Title)
	assert.Equal(t, "EA FC 25 Ultimate Team", cands[1].Title)
}

func TestDedupMergesRomanNumerals(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:    {sig(source.SourceNews, "GTA VI", 70, "GTA")},
		source.SourceYouTube: {sig(source.SourceYouTube, "GTA 6", 60, "GTA")},
	})

	require.Len(t, cands, 1)
	assert.Equal(t, 2, cands[0].Sources)
}

func TestDedupBlocksByFirstCategory(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, "Summer sale is live", 70, "Steam")},
		source.SourceReddit: {sig(source.SourceReddit, "Summer sale is live", 60, "Xbox", "Steam")},
	})

	require.Len(t, cands, 2)
	assert.Equal(t, "Steam", cands[0].Category)
	// Xbox and Steam tie on one mention each; Xbox was seen first.
	assert.Equal(t, "Xbox", cands[1].Category)
	assert.Equal(t, []string{"Xbox", "Steam"}, cands[1].Categories)
}

func TestDedupUncategorizedBucketComesLast(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:  {sig(source.SourceNews, "Something happened", 70)},
		source.SourceSteam: {sig(source.SourceSteam, "Free Fire diamonds event", 50, "Free Fire")},
	})

	require.Len(t, cands, 2)
	assert.Equal(t, "Free Fire", cands[0].Category)
	assert.Equal(t, category.SegmentMobileTopUp, cands[0].BizCategory)
	assert.Equal(t, category.General, cands[1].Category)
	assert.Equal(t, OtherSegment, cands[1].BizCategory)
}

func TestDedupCallOfDutyPair(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())
	a := NormalizeTitle("Call of Duty 2026")
	b := NormalizeTitle("Call of Duty: Black Ops")

	// One side has no number, so the guard does not apply.
	assert.False(t, NumbersConflict(NumberTokens(a), NumberTokens(b)))
	// The pair passes the prefilter but 2*13/39 is short of the threshold.
	assert.Equal(t, 0.5, Jaccard(a, b))
	assert.InDelta(t, 2.0/3.0, Similarity(a, b), 1e-9)

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, "Call of Duty 2026", 70, "Call of Duty")},
		source.SourceReddit: {sig(source.SourceReddit, "Call of Duty: Black Ops", 60, "Call of Duty")},
	})
	require.Len(t, cands, 2)
	assert.Equal(t, "Call of Duty 2026", cands[0].Title)
	assert.Equal(t, 1, cands[0].Sources)
}

func TestDedupPrefilterSkipsLowOverlap(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	// Character similarity is high but no word is shared.
	a := strings.Repeat("a", 41) + strings.Repeat("b", 9)
	b := strings.Repeat("a", 41) + strings.Repeat("c", 9)
	require.True(t, NewMatcher(0).Match(a, b))

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, a, 70, "GTA")},
		source.SourceReddit: {sig(source.SourceReddit, b, 60, "GTA")},
	})
	assert.Len(t, cands, 2)
}

func TestDedupEmptyTitlesStaySingletons(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, "", 70), sig(source.SourceNews, "!!!", 70)},
		source.SourceReddit: {sig(source.SourceReddit, "", 60)},
	})
	assert.Len(t, cands, 3)
}

func TestDedupEmptyInput(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())
	assert.Empty(t, d.Dedup(nil))
	assert.Empty(t, d.Dedup(map[source.SourceType][]source.Signal{source.SourceNews: {}}))
}

func TestDedupSourcesCollapseAliases(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:     {sig(source.SourceNews, "Steam Next Fest", 70, "Steam")},
		"google":              {sig("google", "Steam Next Fest", 70, "Steam")},
		source.SourceSteam:    {sig(source.SourceSteam, "Steam Next Fest", 70, "Steam")},
		source.SourceSteamNew: {sig(source.SourceSteamNew, "Steam Next Fest", 70, "Steam")},
	})

	require.Len(t, cands, 1)
	assert.Len(t, cands[0].Signals, 4)
	assert.Equal(t, 2, cands[0].Sources)
	assert.ElementsMatch(t, []string{"news", "steam"}, cands[0].SourceNames)
}

func TestDedupURLPriority(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	withURL := func(s source.Signal, url string) source.Signal {
		s.URL = url
		return s
	}
	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceWiki:   {withURL(sig(source.SourceWiki, "Grand Theft Auto VI", 70, "GTA"), "https://wiki.example/gta")},
		source.SourceNews:   {sig(source.SourceNews, "Grand Theft Auto VI", 70, "GTA")},
		source.SourceReddit: {withURL(sig(source.SourceReddit, "Grand Theft Auto VI", 70, "GTA"), "https://reddit.example/gta")},
		"unknown":           {withURL(sig("unknown", "Grand Theft Auto VI", 70, "GTA"), "https://unknown.example/gta")},
	})

	require.Len(t, cands, 1)
	assert.Equal(t, "https://reddit.example/gta", cands[0].URL)
}

func TestDedupNoURL(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())
	cands := d.Dedup(gtaScenario())
	require.Len(t, cands, 1)
	assert.Empty(t, cands[0].URL)
}

func TestDedupBusinessCategoryTally(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), testClassifier())

	cands := d.Dedup(map[source.SourceType][]source.Signal{
		source.SourceNews:   {sig(source.SourceNews, "Weekend deals roundup", 70, "Steam", "Netflix")},
		source.SourceReddit: {sig(source.SourceReddit, "Weekend deals roundup", 60, "Steam", "Xbox")},
		source.SourceSteam: {{
			Source: source.SourceSteam,
			Title:  "Weekend deals roundup",
			Score:  50,
			Meta:   source.Meta{Categories: []string{"Steam", "Unmapped"}, BusinessCategory: "Ignored"},
		}},
		source.SourceGOG: {{
			Source: source.SourceGOG,
			Title:  "Weekend deals roundup",
			Score:  50,
			Meta:   source.Meta{BusinessCategory: category.SegmentPrepaid},
		}},
	})

	require.Len(t, cands, 2)
	c := cands[0]
	assert.Equal(t, []string{"Steam", "Netflix", "Xbox", "Unmapped"}, c.Categories)
	assert.Equal(t, []string{category.SegmentGaming, category.SegmentEntertainment}, c.BizCategories)
	assert.Equal(t, category.SegmentGaming, c.BizCategory)

	// No category maps to a segment, so the fetcher's own segment is used.
	assert.Equal(t, category.SegmentPrepaid, cands[1].BizCategory)
}

func TestDedupIsPartition(t *testing.T) {
	d := NewDeduplicator(DefaultTables(), category.NewDefault())

	titles := []string{
		"GTA 6 trailer", "GTA VI trailer breakdown", "Fortnite Chapter 6 season 2",
		"Fortnite chapter 6 season 2 live event", "EA FC 26 TOTY", "EA FC 25 TOTY",
		"Netflix raises prices", "Roblox outage", "Minecraft Live recap", "",
		"Steam summer sale", "Steam Summer Sale starts", "Valorant Episode 9",
	}
	in := map[source.SourceType][]source.Signal{}
	total := 0
	for i, st := range source.AllSourceTypes() {
		for j := 0; j <= i%4; j++ {
			title := titles[(i+j)%len(titles)]
			cats := category.NewDefault().Match(title)
			s := sig(st, title, float64(10*i+j), cats...)
			s.Desc = fmt.Sprintf("%s-%d", st, j)
			in[st] = append(in[st], s)
			total++
		}
	}

	cands := d.Dedup(in)

	seen := map[string]int{}
	n := 0
	for _, c := range cands {
		require.NotEmpty(t, c.Signals)
		n += len(c.Signals)
		for _, s := range c.Signals {
			seen[s.Desc]++
		}

		distinct := map[source.SourceType]bool{}
		for _, s := range c.Signals {
			distinct[DefaultTables().Canonical(s.Source)] = true
		}
		assert.LessOrEqual(t, c.Sources, len(distinct))
	}
	assert.Equal(t, total, n)
	assert.Len(t, seen, total)
	for desc, count := range seen {
		assert.Equalf(t, 1, count, "signal %s", desc)
	}
}
