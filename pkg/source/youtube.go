package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

// Channel is a YouTube channel whose upload feed is read.
type Channel struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// DefaultChannels lists gaming news and platform channels.
func DefaultChannels() []Channel {
	return []Channel{
		{Name: "IGN", ID: "UCKy1dAqELo0zrOtPkf0eTMw"},
		{Name: "GameSpot", ID: "UCbu2SsF1frCRhGHstdXZR5g"},
		{Name: "PlayStation", ID: "UC-2Y8dQb0S6DtpxNgAKoJKA"},
		{Name: "Xbox", ID: "UCXGgrKt94gR6lmN4aN3mYTg"},
		{Name: "Nintendo", ID: "UCGIY_O-8vW4rfx98KlMkvRg"},
		{Name: "The Game Awards", ID: "UCMjezPLBl-5fVS0HERR6QRA"},
		{Name: "Skill Up", ID: "UCZ7AeeVbyslLM_8-nQy_8CQ"},
		{Name: "ACG", ID: "UCK9_x1DImhU-eolIay5rb2Q"},
		{Name: "Digital Foundry", ID: "UC9PBzalIcEQCsiIkq36PyUA"},
		{Name: "Laymen Gaming", ID: "UCYkgPmEwIcTn_WmocdZXEcg"},
		{Name: "Fextralife", ID: "UC1ONOluGA4Hht2CsMkJOyVg"},
	}
}

const (
	youtubeKeep       = 10
	youtubeMaxAgeDays = 7
)

// YouTube collects recent uploads from channel feeds. An API key is optional
// and only adds view counts.
type YouTube struct {
	client     *http.Client
	parser     *gofeed.Parser
	classifier *category.Classifier
	apiKey     string
	channels   []Channel

	feedURL  string
	statsURL string
}

// NewYouTube creates the youtube source.
func NewYouTube(classifier *category.Classifier, apiKey string, channels []Channel) *YouTube {
	if len(channels) == 0 {
		channels = DefaultChannels()
	}
	return &YouTube{
		client:     defaultClient(),
		parser:     gofeed.NewParser(),
		classifier: classifier,
		apiKey:     apiKey,
		channels:   channels,
		feedURL:    "https://www.youtube.com/feeds/videos.xml",
		statsURL:   "https://www.googleapis.com/youtube/v3/videos",
	}
}

func (y *YouTube) Name() SourceType { return SourceYouTube }

func (y *YouTube) Collect(ctx context.Context) ([]Signal, error) {
	var (
		all  []Signal
		errs []error
	)
	for _, ch := range y.channels {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		sigs, err := y.collectChannel(ctx, ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, sigs...)
	}

	if y.apiKey != "" && len(all) > 0 {
		if err := y.enrichWithStats(ctx, all); err != nil {
			errs = append(errs, err)
		}
	}
	return all, errors.Join(errs...)
}

func (y *YouTube) collectChannel(ctx context.Context, ch Channel) ([]Signal, error) {
	parsed, err := getFeed(ctx, y.client, y.parser, y.feedURL+"?channel_id="+url.QueryEscape(ch.ID))
	if err != nil {
		return nil, fmt.Errorf("youtube channel %s: %w", ch.Name, err)
	}

	var out []Signal
	for i, entry := range parsed.Items {
		if i >= youtubeKeep {
			break
		}
		if !recent(published(entry), youtubeMaxAgeDays) {
			continue
		}
		title := strings.TrimSpace(entry.Title)
		cats := y.classifier.Match(title)
		if len(cats) == 0 {
			continue
		}
		out = append(out, Signal{
			Source: SourceYouTube,
			Title:  truncate(title, maxTitleLen),
			Desc:   ch.Name,
			URL:    entry.Link,
			Score:  60,
			Meta: Meta{
				Categories: cats,
				Fresh:      boolPtr(true),
				Extra:      map[string]any{"channel": ch.Name, "video_id": videoID(entry)},
			},
		})
	}
	return out, nil
}

// videoID reads the yt:videoId extension, falling back to the link's v param.
func videoID(entry *gofeed.Item) string {
	if yt, ok := entry.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 {
			return ids[0].Value
		}
	}
	if u, err := url.Parse(entry.Link); err == nil {
		return u.Query().Get("v")
	}
	return ""
}

func (y *YouTube) enrichWithStats(ctx context.Context, sigs []Signal) error {
	idx := make(map[string]int)
	var ids []string
	for i, s := range sigs {
		id, _ := s.Meta.Extra["video_id"].(string)
		if id == "" {
			continue
		}
		idx[id] = i
		ids = append(ids, id)
	}

	// The videos endpoint takes at most 50 ids.
	for start := 0; start < len(ids); start += 50 {
		end := min(start+50, len(ids))

		params := url.Values{}
		params.Set("part", "statistics")
		params.Set("id", strings.Join(ids[start:end], ","))
		params.Set("key", y.apiKey)

		var result ytVideoResult
		if err := getJSON(ctx, y.client, y.statsURL+"?"+params.Encode(), nil, &result); err != nil {
			return fmt.Errorf("youtube stats: %w", err)
		}
		for _, video := range result.Items {
			if i, ok := idx[video.ID]; ok {
				sigs[i].Meta.Extra["views"] = video.Statistics.ViewCount
			}
		}
	}
	return nil
}

type ytVideoResult struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount int `json:"viewCount,string"`
		} `json:"statistics"`
	} `json:"items"`
}
