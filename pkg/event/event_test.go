package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanDay = time.Date(2026, 10, 16, 6, 30, 0, 0, time.UTC)

func names(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}

func TestUpcomingStatusAndUrgency(t *testing.T) {
	cal := []Entry{
		{Month: 12, StartDay: 18, EndDay: 18, Name: "Winter Sale", Priority: 10},
		{Month: 12, StartDay: 15, EndDay: 15, Name: "Edge", Priority: 5},
		{Month: 10, StartDay: 28, EndDay: 28, Name: "Two Weeks", Priority: 7},
		{Month: 10, StartDay: 20, EndDay: 22, Name: "Next Fest", Priority: 9},
		{Month: 10, StartDay: 10, EndDay: 31, Name: "Season", Priority: 6},
		{Month: 10, StartDay: 1, EndDay: 31, Name: "Month Long", Priority: 9},
		{Month: 10, StartDay: 8, EndDay: 12, Name: "Finished", Priority: 8},
		{Month: 10, StartDay: 16, EndDay: 16, Name: "Today", Priority: 8},
		{Month: 2, StartDay: 30, EndDay: 30, Name: "Impossible", Priority: 10},
		{Month: 10, StartDay: 30, EndDay: 20, Name: "Backwards", Priority: 10},
	}

	evs := Upcoming(cal, scanDay)
	require.Equal(t, []string{"Today", "Season", "Finished", "Next Fest", "Two Weeks", "Edge"}, names(evs))

	byName := map[string]Event{}
	for _, e := range evs {
		byName[e.Name] = e
	}
	assert.Equal(t, "ACTIVE NOW", byName["Today"].Status)
	assert.Equal(t, UrgencyCritical, byName["Today"].Urgency)
	assert.Equal(t, 0, byName["Today"].DaysUntil)
	assert.Equal(t, -6, byName["Season"].DaysUntil)
	assert.True(t, byName["Season"].Active())

	assert.Equal(t, "-8d", byName["Finished"].Status)
	assert.Equal(t, UrgencyHigh, byName["Finished"].Urgency)
	assert.False(t, byName["Finished"].Active())

	assert.Equal(t, "4d", byName["Next Fest"].Status)
	assert.Equal(t, UrgencyHigh, byName["Next Fest"].Urgency)
	assert.Equal(t, UrgencyMedium, byName["Two Weeks"].Urgency)
	assert.Equal(t, "60d", byName["Edge"].Status)
	assert.Equal(t, UrgencyLow, byName["Edge"].Urgency)
}

func TestUpcomingRollsIntoNextYear(t *testing.T) {
	late := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
	cal := []Entry{
		{Month: 1, StartDay: 10, EndDay: 25, Name: "TOTY", Priority: 10},
		{Month: 12, StartDay: 18, EndDay: 31, Name: "Winter Sale", Priority: 10},
	}

	evs := Upcoming(cal, late)
	require.Len(t, evs, 2)
	assert.Equal(t, "Winter Sale", evs[0].Name)
	assert.Equal(t, "ACTIVE NOW", evs[0].Status)
	assert.Equal(t, "TOTY", evs[1].Name)
	assert.Equal(t, 21, evs[1].DaysUntil)
	assert.Equal(t, time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC), evs[1].Start)
	assert.Equal(t, time.Date(2027, 1, 25, 0, 0, 0, 0, time.UTC), evs[1].End)
}

func TestUpcomingDefaultCalendar(t *testing.T) {
	evs := Upcoming(DefaultCalendar(), scanDay)
	require.Len(t, evs, 16)

	assert.Equal(t, []string{"Call of Duty 2026", "Fortnitemares", "Steam Next Fest Oct", "Steam Scream V"}, names(evs[:4]))
	assert.Equal(t, "ACTIVE NOW", evs[0].Status)
	assert.Equal(t, -1, evs[0].DaysUntil)

	for _, e := range evs {
		if e.Name == "GTA 6 LAUNCH" {
			assert.Equal(t, "34d", e.Status)
			assert.Equal(t, UrgencyLow, e.Urgency)
			return
		}
	}
	t.Fatal("GTA 6 launch missing from the calendar window")
}

func TestUpcomingEmpty(t *testing.T) {
	assert.Empty(t, Upcoming(nil, scanDay))
}
