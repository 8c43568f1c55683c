package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

// maxLinks bounds how many supporting signals a notifier renders.
const maxLinks = 5

// Notification is the data sent to alert destinations. One notification
// describes one candidate that entered or climbed the ranking.
type Notification struct {
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	URL         string          `json:"url"`
	Score       float64         `json:"score"`
	Rank        int             `json:"rank"`
	PrevRank    int             `json:"prev_rank,omitempty"`
	Status      trend.Status    `json:"status"`
	Category    string          `json:"category"`
	BizCategory string          `json:"biz_category"`
	Sources     []string        `json:"sources"`
	Signals     []source.Signal `json:"signals"`
}

// NewNotification describes candidate c moving as m.
func NewNotification(c *trend.Candidate, m trend.Movement) *Notification {
	body := fmt.Sprintf("New in the ranking at #%d", m.Rank)
	if m.Status == trend.StatusUp {
		body = fmt.Sprintf("Up from #%d to #%d (%+.1f)", m.PrevRank, m.Rank, m.Delta)
	}
	return &Notification{
		Title:       c.Title,
		Body:        body,
		URL:         c.URL,
		Score:       c.Score,
		Rank:        m.Rank,
		PrevRank:    m.PrevRank,
		Status:      m.Status,
		Category:    c.Category,
		BizCategory: c.BizCategory,
		Sources:     c.SourceNames,
		Signals:     c.Signals,
	}
}

// Rising returns a notification for every ranked candidate that is new or
// climbed since the previous run and scores at least minScore.
func Rising(cands []*trend.Candidate, h trend.History, minScore float64) []*Notification {
	var out []*Notification
	for _, m := range h.Movements {
		if !m.Rising() || m.Score < minScore {
			continue
		}
		// Snapshot ranks are one-based positions in the ranked list.
		i := m.Rank - 1
		if i < 0 || i >= len(cands) || cands[i].Title != m.Title {
			continue
		}
		out = append(out, NewNotification(cands[i], m))
	}
	return out
}

// topSignals returns up to maxLinks signals that carry a URL.
func (n *Notification) topSignals() []source.Signal {
	var out []source.Signal
	for _, s := range n.Signals {
		if s.URL == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxLinks {
			break
		}
	}
	return out
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Names lists the configured notifiers.
func (m *Manager) Names() []string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Broadcast sends a notification to all registered notifiers. A failing
// notifier does not stop the others.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
