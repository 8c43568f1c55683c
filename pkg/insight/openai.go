package insight

import (
	"context"
	"errors"
	"net/http"
)

type openAI struct {
	client  *http.Client
	model   string
	apiKey  string
	baseURL string
}

func newOpenAI(opts Options) *openAI {
	return &openAI{
		client:  &http.Client{Timeout: opts.Timeout},
		model:   withDefault(opts.Model, "gpt-4o-mini"),
		apiKey:  opts.APIKey,
		baseURL: withDefault(opts.BaseURL, "https://api.openai.com"),
	}
}

func (o *openAI) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":           o.model,
		"messages":        []map[string]string{{"role": "user", "content": prompt}},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	header := http.Header{"Authorization": {"Bearer " + o.apiKey}}
	if err := postJSON(ctx, o.client, "openai", o.baseURL+"/v1/chat/completions", header, payload, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}
