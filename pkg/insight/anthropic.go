package insight

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

type anthropic struct {
	client  *http.Client
	model   string
	apiKey  string
	baseURL string
}

func newAnthropic(opts Options) *anthropic {
	return &anthropic{
		client:  &http.Client{Timeout: opts.Timeout},
		model:   withDefault(opts.Model, "claude-sonnet-4-20250514"),
		apiKey:  opts.APIKey,
		baseURL: withDefault(opts.BaseURL, "https://api.anthropic.com"),
	}
}

func (a *anthropic) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       a.model,
		"max_tokens":  4096,
		"temperature": 0.2,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	header := http.Header{
		"X-Api-Key":         {a.apiKey},
		"Anthropic-Version": {anthropicVersion},
	}
	if err := postJSON(ctx, a.client, "anthropic", a.baseURL+"/v1/messages", header, payload, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "" || c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: no content returned")
	}
	return sb.String(), nil
}
