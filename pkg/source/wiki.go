package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// DefaultWikiPages are the articles whose weekly pageviews are tracked.
var DefaultWikiPages = []string{
	"Grand_Theft_Auto_VI", "EA_Sports_FC", "Fortnite", "PlayStation_5",
	"Xbox_Game_Pass", "Nintendo_Switch_2", "Genshin_Impact", "Call_of_Duty",
	"Minecraft", "Roblox", "Valorant", "League_of_Legends", "Steam_(service)",
	"Spotify", "Netflix", "Crunchyroll", "Discord", "Honkai:_Star_Rail",
	"Elden_Ring", "Monster_Hunter_Wilds",
}

// wikiMinViews drops pages nobody is reading.
const wikiMinViews = 1000

// Wiki collects last week's Wikipedia pageviews for tracked articles.
type Wiki struct {
	client     *http.Client
	classifier *category.Classifier
	pages      []string
	now        func() time.Time
	baseURL    string
}

// NewWiki creates the wiki source.
func NewWiki(classifier *category.Classifier, pages []string) *Wiki {
	if len(pages) == 0 {
		pages = DefaultWikiPages
	}
	return &Wiki{
		client:     defaultClient(),
		classifier: classifier,
		pages:      pages,
		now:        time.Now,
		baseURL:    "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article/en.wikipedia/all-access/all-agents",
	}
}

func (w *Wiki) Name() SourceType { return SourceWiki }

func (w *Wiki) Collect(ctx context.Context) ([]Signal, error) {
	end := w.now().UTC().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)
	const layout = "20060102"

	var (
		out  []Signal
		errs []error
	)
	for _, page := range w.pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		u := fmt.Sprintf("%s/%s/daily/%s/%s", w.baseURL, url.PathEscape(page), start.Format(layout), end.Format(layout))
		var resp struct {
			Items []struct {
				Views int `json:"views"`
			} `json:"items"`
		}
		// Wikimedia asks API clients for a descriptive agent.
		if err := getJSON(ctx, w.client, u, map[string]string{"User-Agent": userAgent + " (content-research)"}, &resp); err != nil {
			errs = append(errs, fmt.Errorf("wiki %s: %w", page, err))
			continue
		}

		views := 0
		for _, it := range resp.Items {
			views += it.Views
		}
		if views <= wikiMinViews {
			continue
		}

		name := strings.ReplaceAll(page, "_", " ")
		out = append(out, Signal{
			Source: SourceWiki,
			Title:  name,
			Desc:   fmt.Sprintf("%d views this week", views),
			URL:    "https://en.wikipedia.org/wiki/" + page,
			Score:  scale(float64(views), 200000),
			Meta: Meta{
				Categories: w.classifier.Match(name),
				Extra:      map[string]any{"views": views},
			},
		})
	}
	return out, errors.Join(errs...)
}
