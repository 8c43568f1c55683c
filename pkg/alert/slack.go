package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{client: newHTTPClient(), webhookURL: webhookURL}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	body, err := marshalFor("slack", map[string]any{"blocks": slackBlocks(n)})
	if err != nil {
		return err
	}
	return postJSON(ctx, s.client, "slack", s.webhookURL, body, nil)
}

func slackBlocks(n *Notification) []map[string]any {
	link := n.Title
	if n.URL != "" {
		link = fmt.Sprintf("<%s|%s>", n.URL, n.Title)
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("%s #%d %s", statusEmoji(n), n.Rank, truncateRunes(n.Title, 140)),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*%s*\n*Score:* %.1f | *Sources:* %s | *Category:* %s (%s)\n%s",
					link, n.Score, strings.Join(n.Sources, ", "), n.Category, n.BizCategory, n.Body),
			},
		},
	}

	sigs := n.topSignals()
	if len(sigs) == 0 {
		return blocks
	}
	elements := make([]map[string]any, 0, len(sigs))
	for _, sig := range sigs {
		elements = append(elements, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("<%s|%s> [%s]", sig.URL, sig.Title, sig.Source),
		})
	}
	return append(blocks, map[string]any{"type": "context", "elements": elements})
}

func statusEmoji(n *Notification) string {
	if n.PrevRank > 0 {
		return "📈"
	}
	return "🆕"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
