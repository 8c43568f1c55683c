package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// DefaultSubreddits are the communities whose hot pages are read.
var DefaultSubreddits = []string{
	"gaming", "Games", "pcgaming", "PS5", "XboxSeriesX", "NintendoSwitch",
	"Steam", "FortNiteBR", "EASportsFC", "GenshinImpact", "leagueoflegends",
	"VALORANT", "Roblox", "spotify", "netflix", "GameDeals",
	"FreeGameFindings", "anime", "CrunchyrollPremium", "NintendoSwitch2",
}

const (
	redditFetchLimit = 15
	redditKeep       = 12
)

// Reddit collects hot posts from subreddits. Without API credentials it reads
// the public hot RSS feed; with them it uses the OAuth listing API.
type Reddit struct {
	client       *http.Client
	parser       *gofeed.Parser
	classifier   *category.Classifier
	filter       *Filter
	clientID     string
	clientSecret string
	subreddits   []string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	baseURL  string
	oauthURL string
	tokenURL string
}

// NewReddit creates the reddit source.
func NewReddit(classifier *category.Classifier, filter *Filter, clientID, clientSecret string, subreddits []string) *Reddit {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &Reddit{
		client:       defaultClient(),
		parser:       gofeed.NewParser(),
		classifier:   classifier,
		filter:       filter,
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		baseURL:      "https://www.reddit.com",
		oauthURL:     "https://oauth.reddit.com",
		tokenURL:     "https://www.reddit.com/api/v1/access_token",
	}
}

func (r *Reddit) Name() SourceType { return SourceReddit }

func (r *Reddit) Collect(ctx context.Context) ([]Signal, error) {
	useAPI := r.clientID != "" && r.clientSecret != ""
	if useAPI {
		if err := r.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("reddit auth: %w", err)
		}
	}

	var (
		all  []Signal
		errs []error
	)
	for _, sub := range r.subreddits {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		var (
			titles []redditEntry
			err    error
		)
		if useAPI {
			titles, err = r.fetchListing(ctx, sub)
		} else {
			titles, err = r.fetchFeed(ctx, sub)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reddit r/%s: %w", sub, err))
			continue
		}
		all = append(all, r.toSignals(sub, titles)...)
	}
	return all, errors.Join(errs...)
}

type redditEntry struct {
	title string
	link  string
	score int
}

func (r *Reddit) toSignals(sub string, entries []redditEntry) []Signal {
	var out []Signal
	for i, e := range entries {
		if i >= redditKeep {
			break
		}
		if !r.filter.MassAppeal(e.title) {
			continue
		}
		cats := r.classifier.Match(e.title)
		if len(cats) == 0 {
			continue
		}
		extra := map[string]any{"subreddit": sub}
		if e.score > 0 {
			extra["upvotes"] = e.score
		}
		out = append(out, Signal{
			Source: SourceReddit,
			Title:  truncate(e.title, maxTitleLen),
			Desc:   "r/" + sub,
			URL:    e.link,
			Score:  65,
			Meta:   Meta{Categories: cats, Extra: extra},
		})
	}
	return out
}

func (r *Reddit) fetchFeed(ctx context.Context, sub string) ([]redditEntry, error) {
	u := fmt.Sprintf("%s/r/%s/hot/.rss?limit=%d", r.baseURL, url.PathEscape(sub), redditFetchLimit)
	parsed, err := getFeed(ctx, r.client, r.parser, u)
	if err != nil {
		return nil, err
	}
	out := make([]redditEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		out = append(out, redditEntry{title: strings.TrimSpace(item.Title), link: item.Link})
	}
	return out, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

func (r *Reddit) fetchListing(ctx context.Context, sub string) ([]redditEntry, error) {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()

	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.oauthURL, url.PathEscape(sub), redditFetchLimit)
	var listing redditListing
	if err := getJSON(ctx, r.client, u, map[string]string{"Authorization": "Bearer " + token}, &listing); err != nil {
		return nil, err
	}

	var out []redditEntry
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}
		out = append(out, redditEntry{
			title: strings.TrimSpace(post.Title),
			link:  "https://www.reddit.com" + post.Permalink,
			score: post.Score,
		})
	}
	return out, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
	Stickied  bool   `json:"stickied"`
}
