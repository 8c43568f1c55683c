package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	userAgent        = "rechargeradar/1.0"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
)

// maxBodyBytes bounds any single response we read.
const maxBodyBytes = 8 << 20

// retryBackoff is the first wait after a 429; it doubles per attempt.
var retryBackoff = 1500 * time.Millisecond

// defaultClient is shared by fetchers that are not given a client.
func defaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// get performs a GET and returns the body of a 200 response. A 429 is retried
// twice with a short backoff; every other status is an error.
func get(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) ([]byte, error) {
	var lastStatus int
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request %s: %w", rawURL, err)
		}
		req.Header.Set("User-Agent", userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			if err := sleep(ctx, retryBackoff<<attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s status %d", rawURL, resp.StatusCode)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rawURL, err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%s status %d", rawURL, lastStatus)
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, v any) error {
	body, err := get(ctx, client, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func getFeed(ctx context.Context, client *http.Client, parser *gofeed.Parser, rawURL string) (*gofeed.Feed, error) {
	body, err := get(ctx, client, rawURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", rawURL, err)
	}
	return feed, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// scale maps v onto 0..100 where max is the value worth a full score.
func scale(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Min(100, v/max*100)
}

// published returns the entry's publish or update time, if any.
func published(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// recent reports whether t lies within the last days days. A missing time is
// never recent.
func recent(t *time.Time, days int) bool {
	if t == nil {
		return false
	}
	return !t.Before(time.Now().AddDate(0, 0, -days))
}
