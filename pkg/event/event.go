// Package event projects a recurring retail calendar onto the days around a scan.
package event

import (
	"fmt"
	"sort"
	"time"
)

const (
	// LookBack is how many days a started event stays listed.
	LookBack = 10
	// LookAhead is how far ahead events are listed.
	LookAhead = 60
	// rollover is the age after which an event is taken from next year's calendar.
	rollover = 30
)

// Urgency levels, shared with the insight opportunities.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// Entry is a yearly recurring event spanning StartDay..EndDay of Month.
type Entry struct {
	Month       int    `yaml:"month"`
	StartDay    int    `yaml:"start_day"`
	EndDay      int    `yaml:"end_day"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority"`
}

// Event is an entry placed relative to a scan date.
type Event struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Urgency     string    `json:"urgency"`
	DaysUntil   int       `json:"days_until"`
	Priority    int       `json:"priority"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Active reports whether the event is running on the scan date.
func (e Event) Active() bool { return e.Urgency == UrgencyCritical }

// Upcoming returns the entries that start within LookAhead days of now or
// started at most LookBack days ago. Running events come first, highest
// priority leading; the rest follow by days until start.
func Upcoming(entries []Entry, now time.Time) []Event {
	today := civil(now)
	var out []Event
	for _, en := range entries {
		start, end, ok := en.dates(today.Year())
		if !ok {
			continue
		}
		if start.Before(today.AddDate(0, 0, -rollover)) {
			if start, end, ok = en.dates(today.Year() + 1); !ok {
				continue
			}
		}
		days := daysBetween(today, start)
		if days < -LookBack || days > LookAhead {
			continue
		}
		ev := Event{
			Name:        en.Name,
			Category:    en.Category,
			Description: en.Description,
			Status:      fmt.Sprintf("%dd", days),
			DaysUntil:   days,
			Priority:    en.Priority,
			Start:       start,
			End:         end,
		}
		switch {
		case days <= 0 && !end.Before(today):
			ev.Status, ev.Urgency = "ACTIVE NOW", UrgencyCritical
		case days <= 7:
			ev.Urgency = UrgencyHigh
		case days <= 14:
			ev.Urgency = UrgencyMedium
		default:
			ev.Urgency = UrgencyLow
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].rankKey(), out[j].rankKey()
		if ki != kj {
			return ki < kj
		}
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}

func (e Event) rankKey() int {
	if e.Active() {
		return -e.Priority
	}
	return 0
}

// dates resolves the entry in year. Days that do not exist in the month,
// such as February 30, make the entry invalid.
func (en Entry) dates(year int) (time.Time, time.Time, bool) {
	if en.Month < 1 || en.Month > 12 || en.StartDay < 1 || en.EndDay < en.StartDay {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(year, time.Month(en.Month), en.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(en.Month), en.EndDay, 0, 0, 0, 0, time.UTC)
	if start.Day() != en.StartDay || end.Day() != en.EndDay {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
