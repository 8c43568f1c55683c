package source

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// CheapShark collects top-rated Steam deals under $15.
type CheapShark struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewCheapShark creates the cheapshark source.
func NewCheapShark(classifier *category.Classifier) *CheapShark {
	return &CheapShark{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://www.cheapshark.com",
	}
}

func (c *CheapShark) Name() SourceType { return SourceCheapShark }

type cheapSharkDeal struct {
	Title       string `json:"title"`
	DealID      string `json:"dealID"`
	Savings     string `json:"savings"`
	NormalPrice string `json:"normalPrice"`
	SalePrice   string `json:"salePrice"`
}

func (c *CheapShark) Collect(ctx context.Context) ([]Signal, error) {
	var deals []cheapSharkDeal
	u := c.baseURL + "/api/1.0/deals?storeID=1&upperPrice=15&pageSize=30&sortBy=Deal+Rating"
	if err := getJSON(ctx, c.client, u, nil, &deals); err != nil {
		return nil, fmt.Errorf("cheapshark: %w", err)
	}

	var out []Signal
	for _, d := range head(deals, 30) {
		savings := parseFloat(d.Savings)
		out = append(out, Signal{
			Source: SourceCheapShark,
			Title:  truncate(d.Title, maxTitleLen),
			Desc:   fmt.Sprintf("$%.0f (was $%.0f, %.0f%% off)", parseFloat(d.SalePrice), parseFloat(d.NormalPrice), savings),
			URL:    "https://www.cheapshark.com/redirect?dealID=" + d.DealID,
			Score:  math.Min(40+savings*0.6, 100),
			Meta: Meta{
				Categories: c.classifier.MatchOr(d.Title, "Steam"),
				Extra:      map[string]any{"savings": savings},
			},
		})
	}
	return out, nil
}

// GOG collects the store's most popular games.
type GOG struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewGOG creates the gog source.
func NewGOG(classifier *category.Classifier) *GOG {
	return &GOG{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://www.gog.com",
	}
}

func (g *GOG) Name() SourceType { return SourceGOG }

func (g *GOG) Collect(ctx context.Context) ([]Signal, error) {
	var resp struct {
		Products []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Price struct {
				Discount float64 `json:"discount"`
			} `json:"price"`
		} `json:"products"`
	}
	u := g.baseURL + "/games/ajax/filtered?mediaType=game&page=1&sort=popularity&limit=20"
	headers := map[string]string{"User-Agent": browserUserAgent, "Accept": "application/json"}
	if err := getJSON(ctx, g.client, u, headers, &resp); err != nil {
		return nil, fmt.Errorf("gog: %w", err)
	}

	var out []Signal
	for _, p := range head(resp.Products, 20) {
		link := "https://www.gog.com"
		if p.URL != "" {
			link += p.URL
		}
		d := int(p.Price.Discount)
		out = append(out, Signal{
			Source: SourceGOG,
			Title:  truncate(p.Title, maxTitleLen),
			Desc:   withDiscount("GOG Popular", d),
			URL:    link,
			Score:  math.Min(50+float64(d)*0.3, 100),
			Meta:   Meta{Categories: g.classifier.MatchOr(p.Title, "Steam")},
		})
	}
	return out, nil
}

// Humble collects Humble Store bestsellers.
type Humble struct {
	client     *http.Client
	classifier *category.Classifier
	baseURL    string
}

// NewHumble creates the humble source.
func NewHumble(classifier *category.Classifier) *Humble {
	return &Humble{
		client:     defaultClient(),
		classifier: classifier,
		baseURL:    "https://www.humblebundle.com",
	}
}

func (h *Humble) Name() SourceType { return SourceHumble }

type humblePrice struct {
	Amount float64 `json:"amount"`
}

func (h *Humble) Collect(ctx context.Context) ([]Signal, error) {
	var resp struct {
		Results []struct {
			HumanName    string       `json:"human_name"`
			HumanURL     string       `json:"human_url"`
			CurrentPrice *humblePrice `json:"current_price"`
			FullPrice    *humblePrice `json:"full_price"`
		} `json:"results"`
	}
	u := h.baseURL + "/store/api/search?sort=bestselling&filter=all&page=0"
	headers := map[string]string{"User-Agent": browserUserAgent, "Accept": "application/json"}
	if err := getJSON(ctx, h.client, u, headers, &resp); err != nil {
		return nil, fmt.Errorf("humble: %w", err)
	}

	var out []Signal
	for _, r := range head(resp.Results, 20) {
		name := strings.TrimSpace(r.HumanName)
		if name == "" {
			name = r.HumanURL
		}
		if name == "" {
			continue
		}

		discount := 0
		if r.CurrentPrice != nil && r.FullPrice != nil && r.FullPrice.Amount > 0 {
			discount = int((1 - r.CurrentPrice.Amount/r.FullPrice.Amount) * 100)
		}
		link := "https://www.humblebundle.com/store"
		if r.HumanURL != "" {
			link += "/" + r.HumanURL
		}

		out = append(out, Signal{
			Source: SourceHumble,
			Title:  truncate(name, maxTitleLen),
			Desc:   withDiscount("Humble bestseller", discount),
			URL:    link,
			Score:  math.Min(55+float64(max(discount, 0))*0.3, 100),
			Meta:   Meta{Categories: h.classifier.MatchOr(name, "Steam")},
		})
	}
	return out, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
