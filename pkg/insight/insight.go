package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

const (
	promptCandidates = 30
	promptEvents     = 15
	maxOpportunities = 15
	matchCutoff      = 0.45
	defaultRetries   = 2
)

const opportunityPrompt = `You are a senior growth strategist at a digital gift card retailer (gaming gift cards, streaming subscriptions, game credits and mobile top-ups).
TODAY: %s

EVENTS (next 60 days):
%s

SCORED CANDIDATES (multi-source composite score, 0-100):
%s

Pick the TOP %d highest-impact opportunities. Prefer time-sensitive topics: new releases, major updates, events happening now or this week. Avoid generic evergreen topics. Only pick things that can move revenue for a gift card and digital credits store.

Return JSON: {"opportunities": [
  {"title": "...", "category": "...", "urgency": "critical|high|medium",
   "confidence": 0.0-1.0, "why_now": "1 sentence", "revenue_signal": "how this drives purchases, 1 sentence"}
]}

IMPORTANT: Use the EXACT candidate titles from the list above. Do NOT rephrase them.`

const executivePrompt = `You are VP Growth presenting to the leadership of a digital gift card retailer (gaming gift cards, streaming subscriptions, game credits).
TODAY: %s

OPPORTUNITIES:
%s

Write an executive briefing. Every sentence must earn its place.
Return JSON: {"summary": "3 sentences max, lead with the #1 revenue opportunity",
"actions": ["SEO Team: do X this week", "Content Team: do Y this week", "Marketing Team: do Z this week"],
"predictions": ["2-3 specific trends for the next 1-2 weeks"],
"risks": ["2-3 risks to watch"]}
Each action must be a plain string.`

// Opportunity is one revenue opportunity picked from the ranked candidates.
type Opportunity struct {
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	Urgency       string  `json:"urgency"`
	Confidence    float64 `json:"confidence"`
	WhyNow        string  `json:"why_now"`
	RevenueSignal string  `json:"revenue_signal"`

	// Candidate is the ranked candidate the opportunity refers to, if any.
	Candidate *trend.Candidate `json:"-"`
}

// Brief is the summarised view of one scan.
type Brief struct {
	Summary       string        `json:"summary"`
	Opportunities []Opportunity `json:"opportunities"`
	Actions       []string      `json:"actions"`
	Predictions   []string      `json:"predictions"`
	Risks         []string      `json:"risks"`
	Provider      string        `json:"provider"`
	Fallback      bool          `json:"fallback"`
}

// Summarizer turns ranked candidates into a Brief.
type Summarizer interface {
	Summarize(ctx context.Context, cands []*trend.Candidate) (*Brief, error)
}

// generator sends a single prompt to a text model and returns its raw reply.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// Calendar feeds upcoming events into the selection prompt.
	Calendar []event.Entry
}

// Client summarises candidates with a hosted language model in two passes:
// opportunity selection, then an executive synthesis.
type Client struct {
	provider string
	gen      generator
	retries  int
	pause    time.Duration
	calendar []event.Entry
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a client for opts.Provider ("gemini", "openai" or "anthropic").
func New(ctx context.Context, opts Options, log zerolog.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: missing api key", opts.Provider)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}

	var gen generator
	switch opts.Provider {
	case "gemini", "":
		opts.Provider = "gemini"
		g, err := newGemini(ctx, opts)
		if err != nil {
			return nil, err
		}
		gen = g
	case "openai":
		gen = newOpenAI(opts)
	case "anthropic":
		gen = newAnthropic(opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}

	return &Client{
		provider: opts.Provider,
		gen:      gen,
		retries:  defaultRetries,
		pause:    2 * time.Second,
		calendar: opts.Calendar,
		now:      time.Now,
		log:      log,
	}, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.provider }

// Summarize picks opportunities from the top candidates and writes an
// executive brief around them. A failed synthesis pass keeps the picked
// opportunities and falls back to the default brief text; a failed selection
// pass is returned as an error.
func (c *Client) Summarize(ctx context.Context, cands []*trend.Candidate) (*Brief, error) {
	if len(cands) == 0 {
		b := Fallback(nil)
		b.Provider = c.provider
		return b, nil
	}

	opps, err := c.opportunities(ctx, cands)
	if err != nil {
		return nil, fmt.Errorf("%s opportunities: %w", c.provider, err)
	}

	brief := &Brief{Opportunities: opps, Provider: c.provider}
	exec, err := c.executive(ctx, opps)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn().Err(err).Str("provider", c.provider).Msg("executive summary failed, using defaults")
		exec = defaultExecutive()
	}
	brief.Summary = exec.Summary
	brief.Actions = exec.Actions
	brief.Predictions = exec.Predictions
	brief.Risks = exec.Risks
	return brief, nil
}

func (c *Client) opportunities(ctx context.Context, cands []*trend.Candidate) ([]Opportunity, error) {
	var lines []string
	for i, cand := range cands {
		if i == promptCandidates {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. [%.1f] %s (sources=%d, cat=%s)",
			i+1, cand.Score, cand.Title, cand.Sources, cand.Category))
	}
	prompt := fmt.Sprintf(opportunityPrompt, c.today(), c.eventLines(), strings.Join(lines, "\n"), maxOpportunities)

	var out struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Opportunities) == 0 {
		return nil, fmt.Errorf("no opportunities returned")
	}

	opps := out.Opportunities
	if len(opps) > maxOpportunities {
		opps = opps[:maxOpportunities]
	}
	for i := range opps {
		opps[i].Urgency = normalizeUrgency(opps[i].Urgency)
		opps[i].Confidence = min(max(opps[i].Confidence, 0), 1)
		opps[i].Candidate = MatchCandidate(opps[i].Title, cands)
	}
	return opps, nil
}

type executive struct {
	Summary     string     `json:"summary"`
	Actions     actionList `json:"actions"`
	Predictions []string   `json:"predictions"`
	Risks       []string   `json:"risks"`
}

func (c *Client) executive(ctx context.Context, opps []Opportunity) (executive, error) {
	top := opps
	if len(top) > 10 {
		top = top[:10]
	}
	body, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return executive{}, fmt.Errorf("encode opportunities: %w", err)
	}
	prompt := fmt.Sprintf(executivePrompt, c.today(), body)

	var out executive
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return executive{}, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return executive{}, fmt.Errorf("empty summary")
	}
	return out, nil
}

// generateJSON calls the model and decodes its reply into v, retrying on
// transport and parse failures.
func (c *Client) generateJSON(ctx context.Context, prompt string, v any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pause):
			}
		}

		raw, err := c.gen.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt+1).Str("provider", c.provider).Msg("generate")
			continue
		}

		raw = stripFences(raw)
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			lastErr = fmt.Errorf("parse response: %w\nraw: %s", err, truncateStr(raw, 500))
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Client) eventLines() string {
	evs := event.Upcoming(c.calendar, c.now())
	if len(evs) == 0 {
		return "None scheduled"
	}
	lines := make([]string, 0, promptEvents)
	for i, e := range evs {
		if i == promptEvents {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s - %s", e.Name, e.Category, e.Status, e.Description))
	}
	return strings.Join(lines, "\n")
}

func (c *Client) today() string {
	return c.now().Format("January 2, 2006")
}

// stripFences removes a surrounding markdown code block from a model reply.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw[3:], "\n"); idx >= 0 {
			raw = raw[3+idx+1:]
		}
		if strings.HasSuffix(raw, "```") {
			raw = raw[:len(raw)-3]
		}
		raw = strings.TrimSpace(raw)
	}
	return raw
}

func normalizeUrgency(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	switch u {
	case "critical", "high", "medium":
		return u
	}
	return "medium"
}

// actionList accepts plain strings as well as {owner, action, due} objects,
// which some models return despite being asked not to.
type actionList []string

func (a *actionList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Owner  string `json:"owner"`
			Action string `json:"action"`
			Due    string `json:"due"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		line := obj.Action
		if obj.Owner != "" {
			line = obj.Owner + ": " + line
		}
		if obj.Due != "" {
			line += " (" + obj.Due + ")"
		}
		out = append(out, line)
	}
	*a = out
	return nil
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
