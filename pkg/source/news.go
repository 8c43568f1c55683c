package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// Feed is a named RSS/Atom feed URL. General feeds still yield signals when no
// category matches, tagged as category.General.
type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	General bool   `yaml:"general"`
}

// DefaultFeeds lists the publisher feeds read by the news source.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "IGN", URL: "https://feeds.feedburner.com/ign/all", General: true},
		{Name: "GameSpot", URL: "https://www.gamespot.com/feeds/mashup/", General: true},
		{Name: "Kotaku", URL: "https://kotaku.com/rss", General: true},
		{Name: "PC Gamer", URL: "https://www.pcgamer.com/rss/", General: true},
		{Name: "Eurogamer", URL: "https://www.eurogamer.net/feed", General: true},
		{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
		{Name: "Polygon", URL: "https://www.polygon.com/rss/index.xml", General: true},
		{Name: "GamesRadar", URL: "https://www.gamesradar.com/rss/", General: true},
		{Name: "Dexerto", URL: "https://www.dexerto.com/feed/", General: true},
		{Name: "Destructoid", URL: "https://www.destructoid.com/feed/"},
		{Name: "VG247", URL: "https://www.vg247.com/feed/all", General: true},
		{Name: "Rock Paper Shotgun", URL: "https://www.rockpapershotgun.com/feed"},
		{Name: "Push Square", URL: "https://www.pushsquare.com/feeds/latest"},
		{Name: "Nintendo Life", URL: "https://www.nintendolife.com/feeds/latest"},
		{Name: "Pure Xbox", URL: "https://www.purexbox.com/feeds/latest"},
		{Name: "Siliconera", URL: "https://www.siliconera.com/feed/"},
		{Name: "TouchArcade", URL: "https://toucharcade.com/feed/"},
		{Name: "Xbox Wire", URL: "https://news.xbox.com/en-us/feed/"},
		{Name: "PlayStation Blog", URL: "https://blog.playstation.com/feed/"},
	}
}

// DefaultExtraTopics are searched on top of the per-category topics.
var DefaultExtraTopics = []string{
	"gift card deals", "game pass price", "playstation plus price",
	"free games this week", "video game delay",
}

const (
	newsTopicItems = 3
	newsFeedItems  = 10
	newsMaxAgeDays = 7
)

// News collects headlines from Google News topic searches and publisher feeds.
type News struct {
	client     *http.Client
	parser     *gofeed.Parser
	classifier *category.Classifier
	filter     *Filter
	topics     []string
	feeds      []Feed

	searchURL string
}

// NewNews creates the news source. When topics is empty they are derived from
// the classifier's categories.
func NewNews(classifier *category.Classifier, filter *Filter, topics []string, feeds []Feed) *News {
	if len(topics) == 0 {
		topics = DefaultTopics(classifier)
	}
	return &News{
		client:     defaultClient(),
		parser:     gofeed.NewParser(),
		classifier: classifier,
		filter:     filter,
		topics:     topics,
		feeds:      feeds,
		searchURL:  "https://news.google.com/rss/search",
	}
}

// DefaultTopics derives search topics from the category table.
func DefaultTopics(classifier *category.Classifier) []string {
	var topics []string
	for _, cat := range classifier.Categories() {
		topics = append(topics, cat+" update", cat+" news")
	}
	return append(topics, DefaultExtraTopics...)
}

func (n *News) Name() SourceType { return SourceNews }

func (n *News) Collect(ctx context.Context) ([]Signal, error) {
	var (
		all  []Signal
		errs []error
	)
	seen := make(map[string]bool)

	for _, topic := range n.topics {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		sigs, err := n.collectTopic(ctx, topic, seen)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, sigs...)
	}

	for _, feed := range n.feeds {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		sigs, err := n.collectFeed(ctx, feed, seen)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, sigs...)
	}

	return all, errors.Join(errs...)
}

func (n *News) collectTopic(ctx context.Context, topic string, seen map[string]bool) ([]Signal, error) {
	q := url.Values{}
	q.Set("q", topic+" when:7d")
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")

	parsed, err := getFeed(ctx, n.client, n.parser, n.searchURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("news topic %q: %w", topic, err)
	}

	var out []Signal
	for i, entry := range parsed.Items {
		if i >= newsTopicItems {
			break
		}
		title, publisher := splitPublisher(entry.Title)
		key := seenKey(title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !n.filter.MassAppeal(title) || !recent(published(entry), newsMaxAgeDays) {
			continue
		}
		cats := n.classifier.Match(title)
		if len(cats) == 0 {
			continue
		}

		out = append(out, Signal{
			Source: SourceNews,
			Title:  truncate(title, maxTitleLen),
			Desc:   "via " + publisher,
			URL:    entry.Link,
			Score:  70,
			Meta: Meta{
				Categories: cats,
				Fresh:      boolPtr(true),
				Extra:      map[string]any{"publisher": publisher, "topic": topic},
			},
		})
	}
	return out, nil
}

func (n *News) collectFeed(ctx context.Context, feed Feed, seen map[string]bool) ([]Signal, error) {
	parsed, err := getFeed(ctx, n.client, n.parser, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("news feed %s: %w", feed.Name, err)
	}

	var out []Signal
	for i, entry := range parsed.Items {
		if i >= newsFeedItems {
			break
		}
		title := strings.TrimSpace(entry.Title)
		key := seenKey(title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !n.filter.MassAppeal(title) || !recent(published(entry), newsMaxAgeDays) {
			continue
		}

		score := 65.0
		cats := n.classifier.Match(title)
		if len(cats) == 0 {
			if !feed.General {
				continue
			}
			score = 45
			cats = []string{category.General}
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		out = append(out, Signal{
			Source: SourceNews,
			Title:  truncate(title, maxTitleLen),
			Desc:   "via " + feed.Name,
			URL:    link,
			Score:  score,
			Meta: Meta{
				Categories: cats,
				Fresh:      boolPtr(true),
				Extra:      map[string]any{"publisher": feed.Name},
			},
		})
	}
	return out, nil
}

// splitPublisher splits a Google News headline "Title - Publisher" on the last
// separator.
func splitPublisher(s string) (title, publisher string) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, " - ")
	if i < 0 {
		return s, "News"
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:])
}

// seenKey collapses a headline to its first 50 alphanumerics, lowercased, so
// syndicated copies of one story are kept once.
func seenKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	k := []rune(b.String())
	if len(k) > 50 {
		k = k[:50]
	}
	return string(k)
}
