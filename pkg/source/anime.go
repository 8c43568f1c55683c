package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// Anime collects top airing and upcoming shows from the Jikan API.
type Anime struct {
	client     *http.Client
	classifier *category.Classifier
	// pause spaces out the two requests; Jikan rate limits aggressively.
	pause   time.Duration
	baseURL string
}

// NewAnime creates the anime source.
func NewAnime(classifier *category.Classifier) *Anime {
	return &Anime{
		client:     defaultClient(),
		classifier: classifier,
		pause:      1500 * time.Millisecond,
		baseURL:    "https://api.jikan.moe",
	}
}

func (a *Anime) Name() SourceType { return SourceAnime }

type jikanList struct {
	Data []struct {
		Title   string  `json:"title"`
		Score   float64 `json:"score"`
		Members int     `json:"members"`
		URL     string  `json:"url"`
	} `json:"data"`
}

func (a *Anime) Collect(ctx context.Context) ([]Signal, error) {
	var (
		out  []Signal
		errs []error
	)

	var airing jikanList
	if err := getJSON(ctx, a.client, a.baseURL+"/v4/top/anime?filter=airing&limit=15", nil, &airing); err != nil {
		errs = append(errs, fmt.Errorf("anime airing: %w", err))
	} else {
		for _, s := range airing.Data {
			out = append(out, a.signal(s.Title, s.URL,
				fmt.Sprintf("Top airing, MAL %.2f, %d fans", s.Score, s.Members),
				scale(float64(s.Members), 1000000), "airing"))
		}
	}

	if err := sleep(ctx, a.pause); err != nil {
		return out, err
	}

	var upcoming jikanList
	if err := getJSON(ctx, a.client, a.baseURL+"/v4/seasons/upcoming?limit=10", nil, &upcoming); err != nil {
		errs = append(errs, fmt.Errorf("anime upcoming: %w", err))
	} else {
		for _, s := range upcoming.Data {
			out = append(out, a.signal(s.Title, s.URL,
				fmt.Sprintf("Upcoming, %d anticipating", s.Members),
				scale(float64(s.Members), 500000), "upcoming"))
		}
	}

	return out, errors.Join(errs...)
}

func (a *Anime) signal(title, link, desc string, score float64, kind string) Signal {
	return Signal{
		Source: SourceAnime,
		Title:  truncate(title, maxTitleLen),
		Desc:   desc,
		URL:    link,
		Score:  score,
		Meta: Meta{
			Categories: a.classifier.MatchOr(title, "Crunchyroll"),
			Extra:      map[string]any{"type": kind},
		},
	}
}
