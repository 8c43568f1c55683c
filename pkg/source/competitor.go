package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// Site is a competitor storefront whose landing page is scanned.
type Site struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultSites lists the key resellers we watch.
func DefaultSites() []Site {
	return []Site{
		{Name: "G2A", URL: "https://www.g2a.com"},
		{Name: "Eneba", URL: "https://www.eneba.com"},
		{Name: "CDKeys", URL: "https://www.cdkeys.com"},
		{Name: "Kinguin", URL: "https://www.kinguin.net"},
	}
}

// competitorTextLimit bounds how much body text is classified per page.
const competitorTextLimit = 5000

// Competitor reports which categories competitor landing pages are promoting.
type Competitor struct {
	client     *http.Client
	classifier *category.Classifier
	sites      []Site
	pause      time.Duration
}

// NewCompetitor creates the competitor source.
func NewCompetitor(classifier *category.Classifier, sites []Site) *Competitor {
	if len(sites) == 0 {
		sites = DefaultSites()
	}
	return &Competitor{
		client:     defaultClient(),
		classifier: classifier,
		sites:      sites,
		pause:      time.Second,
	}
}

func (c *Competitor) Name() SourceType { return SourceCompetitor }

func (c *Competitor) Collect(ctx context.Context) ([]Signal, error) {
	var (
		out  []Signal
		errs []error
	)
	for i, site := range c.sites {
		if i > 0 {
			if err := sleep(ctx, c.pause); err != nil {
				return out, err
			}
		}
		promoted, err := c.scan(ctx, site)
		if err != nil {
			errs = append(errs, fmt.Errorf("competitor %s: %w", site.Name, err))
			continue
		}
		for _, cat := range promoted {
			out = append(out, Signal{
				Source: SourceCompetitor,
				Title:  site.Name + ": " + cat,
				Desc:   site.Name + " promoting " + cat,
				URL:    site.URL,
				Score:  45,
				Meta: Meta{
					Categories: []string{cat},
					Extra:      map[string]any{"competitor": site.Name, "product": cat},
				},
			})
		}
	}
	return out, errors.Join(errs...)
}

// scan returns the categories found in the page text and headings, in first
// seen order.
func (c *Competitor) scan(ctx context.Context, site Site) ([]string, error) {
	body, err := get(ctx, c.client, site.URL, map[string]string{
		"User-Agent":      browserUserAgent,
		"Accept":          "text/html",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	text = truncate(text, competitorTextLimit)

	var promoted []string
	seen := make(map[string]bool)
	add := func(cats []string) {
		for _, cat := range cats {
			if !seen[cat] {
				seen[cat] = true
				promoted = append(promoted, cat)
			}
		}
	}

	add(c.classifier.Match(text))
	doc.Find("h1, h2, h3, title").Each(func(_ int, s *goquery.Selection) {
		add(c.classifier.Match(strings.TrimSpace(s.Text())))
	})
	return promoted, nil
}
