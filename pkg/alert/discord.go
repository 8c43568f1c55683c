package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	discordColorNew    = 0x2E7D32
	discordColorRising = 0xFF6600
)

// Discord posts a single embed per notification.
type Discord struct {
	client     *http.Client
	webhookURL string
	now        func() time.Time
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{client: newHTTPClient(), webhookURL: webhookURL, now: time.Now}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	body, err := marshalFor("discord", map[string]any{
		"embeds": []map[string]any{d.embed(n)},
	})
	if err != nil {
		return err
	}
	return postJSON(ctx, d.client, "discord", d.webhookURL, body, nil)
}

func (d *Discord) embed(n *Notification) map[string]any {
	var links []string
	for _, sig := range n.topSignals() {
		links = append(links, fmt.Sprintf("• [%s](%s) [%s]", sig.Title, sig.URL, sig.Source))
	}

	color := discordColorNew
	if n.PrevRank > 0 {
		color = discordColorRising
	}

	e := map[string]any{
		"title": truncateRunes(fmt.Sprintf("%s #%d %s", statusEmoji(n), n.Rank, n.Title), 256),
		"description": fmt.Sprintf("**Score:** %.1f | **Sources:** %s\n**Category:** %s (%s)\n\n%s\n\n%s",
			n.Score, strings.Join(n.Sources, ", "), n.Category, n.BizCategory, n.Body, strings.Join(links, "\n")),
		"color":     color,
		"timestamp": d.now().UTC().Format(time.RFC3339),
	}
	if n.URL != "" {
		e["url"] = n.URL
	}
	return e
}
