package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

const steamKeep = 10

type steamItem struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	DiscountPercent int    `json:"discount_percent"`
}

type steamSection struct {
	Items []steamItem `json:"items"`
}

type steamCategories struct {
	TopSellers  steamSection `json:"top_sellers"`
	Specials    steamSection `json:"specials"`
	NewReleases steamSection `json:"new_releases"`
	ComingSoon  steamSection `json:"coming_soon"`
}

func steamAppURL(id int) string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d", id)
}

func withDiscount(label string, d int) string {
	if d > 0 {
		return fmt.Sprintf("%s, %d%% off", label, d)
	}
	return label
}

// Steam collects the storefront's featured, top seller and specials lists.
type Steam struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewSteam creates the steam source.
func NewSteam(classifier *category.Classifier) *Steam {
	return &Steam{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://store.steampowered.com",
	}
}

func (s *Steam) Name() SourceType { return SourceSteam }

func (s *Steam) Collect(ctx context.Context) ([]Signal, error) {
	var (
		out  []Signal
		errs []error
	)

	var featured struct {
		FeaturedWin []steamItem `json:"featured_win"`
	}
	if err := getJSON(ctx, s.client, s.baseURL+"/api/featured/", nil, &featured); err != nil {
		errs = append(errs, fmt.Errorf("steam featured: %w", err))
	} else {
		for _, it := range head(featured.FeaturedWin, steamKeep) {
			out = append(out, s.signal(it, "Featured", math.Min(60+float64(it.DiscountPercent)*0.4, 100)))
		}
	}

	var cats steamCategories
	if err := getJSON(ctx, s.client, s.baseURL+"/api/featuredcategories/", nil, &cats); err != nil {
		errs = append(errs, fmt.Errorf("steam categories: %w", err))
	} else {
		for _, it := range head(cats.TopSellers.Items, steamKeep) {
			out = append(out, s.signal(it, "Top Sellers", math.Min(70+float64(it.DiscountPercent)*0.3, 100)))
		}
		for _, it := range head(cats.Specials.Items, steamKeep) {
			out = append(out, s.signal(it, "Specials", math.Min(50+float64(it.DiscountPercent)*0.3, 100)))
		}
	}

	return out, errors.Join(errs...)
}

func (s *Steam) signal(it steamItem, label string, score float64) Signal {
	return Signal{
		Source: SourceSteam,
		Title:  truncate(it.Name, maxTitleLen),
		Desc:   withDiscount(label, it.DiscountPercent),
		URL:    steamAppURL(it.ID),
		Score:  score,
		Meta: Meta{
			Categories: s.classifier.Match(it.Name),
			Extra:      map[string]any{"discount": it.DiscountPercent},
		},
	}
}

// SteamNew collects new releases and upcoming titles.
type SteamNew struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewSteamNew creates the steam new-release source.
func NewSteamNew(classifier *category.Classifier) *SteamNew {
	return &SteamNew{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://store.steampowered.com",
	}
}

func (s *SteamNew) Name() SourceType { return SourceSteamNew }

func (s *SteamNew) Collect(ctx context.Context) ([]Signal, error) {
	var cats steamCategories
	if err := getJSON(ctx, s.client, s.baseURL+"/api/featuredcategories/", nil, &cats); err != nil {
		return nil, fmt.Errorf("steam new releases: %w", err)
	}

	var out []Signal
	add := func(items []steamItem, label, kind string, score float64) {
		for _, it := range head(items, steamKeep) {
			out = append(out, Signal{
				Source: SourceSteamNew,
				Title:  truncate(it.Name, maxTitleLen),
				Desc:   withDiscount(label, it.DiscountPercent),
				URL:    steamAppURL(it.ID),
				Score:  score,
				Meta: Meta{
					Categories: s.classifier.MatchOr(it.Name, "Steam"),
					Fresh:      boolPtr(true),
					Extra:      map[string]any{"type": kind},
				},
			})
		}
	}
	add(cats.NewReleases.Items, "New Release", "new_releases", 60)
	add(cats.ComingSoon.Items, "Coming Soon", "coming_soon", 45)
	return out, nil
}

// SteamSpy collects the most played games of the last two weeks.
type SteamSpy struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewSteamSpy creates the steamspy source.
func NewSteamSpy(classifier *category.Classifier) *SteamSpy {
	return &SteamSpy{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://steamspy.com",
	}
}

func (s *SteamSpy) Name() SourceType { return SourceSteamSpy }

type steamSpyApp struct {
	AppID         int    `json:"appid"`
	Name          string `json:"name"`
	CCU           int    `json:"ccu"`
	Players2Weeks int    `json:"players_2weeks"`
}

func (s *SteamSpy) Collect(ctx context.Context) ([]Signal, error) {
	var apps map[string]steamSpyApp
	if err := getJSON(ctx, s.client, s.baseURL+"/api.php?request=top100in2weeks", nil, &apps); err != nil {
		return nil, fmt.Errorf("steamspy: %w", err)
	}

	ids := make([]string, 0, len(apps))
	for id := range apps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := apps[ids[i]], apps[ids[j]]
		if a.CCU != b.CCU {
			return a.CCU > b.CCU
		}
		return ids[i] < ids[j]
	})

	var out []Signal
	for _, id := range head(ids, 20) {
		app := apps[id]
		name := strings.TrimSpace(app.Name)
		if name == "" {
			continue
		}
		out = append(out, Signal{
			Source: SourceSteamSpy,
			Title:  truncate(name, maxTitleLen),
			Desc:   fmt.Sprintf("%d playing now, %d in 2wk", app.CCU, app.Players2Weeks),
			URL:    "https://store.steampowered.com/app/" + id,
			Score:  scale(float64(app.CCU), 500000),
			Meta: Meta{
				Categories: s.classifier.MatchOr(name, "Steam"),
				Extra:      map[string]any{"ccu": app.CCU},
			},
		})
	}
	return out, nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
