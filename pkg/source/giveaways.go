package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// GamerPower collects the most popular live giveaways.
type GamerPower struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewGamerPower creates the gamerpower source.
func NewGamerPower(classifier *category.Classifier) *GamerPower {
	return &GamerPower{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://www.gamerpower.com",
	}
}

func (g *GamerPower) Name() SourceType { return SourceGamerPower }

func (g *GamerPower) Collect(ctx context.Context) ([]Signal, error) {
	var giveaways []struct {
		Title     string `json:"title"`
		Platforms string `json:"platforms"`
		Worth     string `json:"worth"`
		Type      string `json:"type"`
		URL       string `json:"open_giveaway_url"`
	}
	if err := getJSON(ctx, g.client, g.baseURL+"/api/giveaways?sort-by=popularity", nil, &giveaways); err != nil {
		return nil, fmt.Errorf("gamerpower: %w", err)
	}

	var out []Signal
	for _, gw := range head(giveaways, 25) {
		worth := gw.Worth
		if worth == "" {
			worth = "N/A"
		}
		out = append(out, Signal{
			Source: SourceGamerPower,
			Title:  truncate(gw.Title, maxTitleLen),
			Desc:   fmt.Sprintf("%s on %s (%s)", gw.Type, gw.Platforms, worth),
			URL:    gw.URL,
			Score:  65,
			Meta: Meta{
				Categories: g.classifier.MatchOr(gw.Title+" "+gw.Platforms, "Gift Cards"),
				Extra:      map[string]any{"platforms": gw.Platforms},
			},
		})
	}
	return out, nil
}

// Epic collects the Epic Games Store's current and upcoming free games.
type Epic struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewEpic creates the epic source.
func NewEpic(classifier *category.Classifier) *Epic {
	return &Epic{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://store-site-backend-static-ipv4.ak.epicgames.com",
	}
}

func (e *Epic) Name() SourceType { return SourceEpic }

const epicFreeGamesURL = "https://store.epicgames.com/en-US/free-games"

type epicPromotions struct {
	PromotionalOffers         []any `json:"promotionalOffers"`
	UpcomingPromotionalOffers []any `json:"upcomingPromotionalOffers"`
}

func (e *Epic) Collect(ctx context.Context) ([]Signal, error) {
	var resp struct {
		Data struct {
			Catalog struct {
				SearchStore struct {
					Elements []struct {
						Title      string          `json:"title"`
						Promotions *epicPromotions `json:"promotions"`
					} `json:"elements"`
				} `json:"searchStore"`
			} `json:"Catalog"`
		} `json:"data"`
	}
	u := e.baseURL + "/freeGamesPromotions?locale=en-US&country=US&allowCountries=US"
	if err := getJSON(ctx, e.client, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("epic: %w", err)
	}

	var out []Signal
	for _, el := range resp.Data.Catalog.SearchStore.Elements {
		if el.Promotions == nil {
			continue
		}
		var (
			desc, status string
			score        float64
		)
		switch {
		case len(el.Promotions.PromotionalOffers) > 0:
			desc, status, score = "FREE NOW on Epic", "free_now", 75
		case len(el.Promotions.UpcomingPromotionalOffers) > 0:
			desc, status, score = "Coming free on Epic", "upcoming", 55
		default:
			continue
		}
		out = append(out, Signal{
			Source: SourceEpic,
			Title:  truncate(el.Title, maxTitleLen),
			Desc:   desc,
			URL:    epicFreeGamesURL,
			Score:  score,
			Meta: Meta{
				Categories: e.classifier.MatchOr(el.Title, "Fortnite"),
				Fresh:      boolPtr(status == "free_now"),
				Extra:      map[string]any{"status": status},
			},
		})
	}
	return out, nil
}

// FreeToGame collects notable free-to-play games.
type FreeToGame struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewFreeToGame creates the freetogame source.
func NewFreeToGame(classifier *category.Classifier) *FreeToGame {
	return &FreeToGame{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://www.freetogame.com",
	}
}

func (f *FreeToGame) Name() SourceType { return SourceFreeToGame }

func (f *FreeToGame) Collect(ctx context.Context) ([]Signal, error) {
	var games []struct {
		Title    string `json:"title"`
		Genre    string `json:"genre"`
		Platform string `json:"platform"`
		URL      string `json:"game_url"`
	}
	if err := getJSON(ctx, f.client, f.baseURL+"/api/games?sort-by=relevance", nil, &games); err != nil {
		return nil, fmt.Errorf("freetogame: %w", err)
	}

	var out []Signal
	for _, g := range head(games, 20) {
		out = append(out, Signal{
			Source: SourceFreeToGame,
			Title:  truncate(strings.TrimSpace(g.Title), maxTitleLen),
			Desc:   fmt.Sprintf("Free %s on %s", g.Genre, g.Platform),
			URL:    g.URL,
			Score:  45,
			Meta:   Meta{Categories: f.classifier.MatchOr(g.Title+" "+g.Genre, "Gift Cards")},
		})
	}
	return out, nil
}
