package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/rechargeradar/internal/store"
)

func entry(rank int, title string, score float64) store.SnapshotEntry {
	return store.SnapshotEntry{Rank: rank, Title: title, Score: score}
}

func TestCompare(t *testing.T) {
	previous := []store.SnapshotEntry{
		entry(1, "Fortnite Chapter 6", 70),
		entry(2, "GTA 6 trailer", 60),
		entry(3, "Roblox outage", 50),
		entry(4, "Steam summer sale", 40),
	}
	current := []store.SnapshotEntry{
		entry(1, "GTA VI trailer", 75.5),
		entry(2, "Fortnite: Chapter 6", 65),
		entry(3, "Minecraft Live", 45),
		entry(4, "Steam Summer Sale", 41),
	}

	h := Compare(current, previous, NewMatcher(0))

	require.Len(t, h.Movements, 4)

	assert.Equal(t, StatusUp, h.Movements[0].Status)
	assert.Equal(t, 2, h.Movements[0].PrevRank)
	assert.Equal(t, 15.5, h.Movements[0].Delta)
	assert.True(t, h.Movements[0].Rising())

	assert.Equal(t, StatusDown, h.Movements[1].Status)
	assert.Equal(t, -5.0, h.Movements[1].Delta)
	assert.False(t, h.Movements[1].Rising())

	assert.Equal(t, StatusNew, h.Movements[2].Status)
	assert.Zero(t, h.Movements[2].PrevRank)
	assert.Equal(t, 45.0, h.Movements[2].Delta)
	assert.True(t, h.Movements[2].Rising())

	assert.Equal(t, StatusSame, h.Movements[3].Status)
	assert.Equal(t, 1.0, h.Movements[3].Delta)

	require.Len(t, h.Dropped, 1)
	assert.Equal(t, "Roblox outage", h.Dropped[0].Title)
}

func TestCompareClaimsPreviousOnce(t *testing.T) {
	previous := []store.SnapshotEntry{entry(1, "GTA 6 trailer", 60)}
	current := []store.SnapshotEntry{
		entry(1, "GTA 6 trailer", 70),
		entry(2, "GTA 6 trailer", 65),
	}

	h := Compare(current, previous, NewMatcher(0))

	assert.Equal(t, StatusSame, h.Movements[0].Status)
	assert.Equal(t, StatusNew, h.Movements[1].Status)
	assert.Empty(t, h.Dropped)
}

func TestCompareSubsetTitleIsNew(t *testing.T) {
	previous := []store.SnapshotEntry{entry(1, "Steam", 60)}
	current := []store.SnapshotEntry{entry(1, "Steam Deck OLED restock sells out", 70)}

	h := Compare(current, previous, NewMatcher(0))

	require.Len(t, h.Movements, 1)
	assert.Equal(t, StatusNew, h.Movements[0].Status)
	require.Len(t, h.Dropped, 1)
	assert.Equal(t, "Steam", h.Dropped[0].Title)
}

func TestCompareWithoutPrevious(t *testing.T) {
	h := Compare([]store.SnapshotEntry{entry(1, "a", 10)}, nil, NewMatcher(0))
	require.Len(t, h.Movements, 1)
	assert.Equal(t, StatusNew, h.Movements[0].Status)
	assert.Empty(t, h.Dropped)
}

func TestSnapshotTopN(t *testing.T) {
	cands := []*Candidate{
		{Title: "a", Score: 90, Sources: 2, SourceNames: []string{"news", "steam"}, Category: "GTA", BizCategory: "Gaming", URL: "u"},
		{Title: "b", Score: 80},
		{Title: "c", Score: 70},
	}

	snap := Snapshot(cands, 2)
	require.Len(t, snap, 2)
	assert.Equal(t, store.SnapshotEntry{
		Rank: 1, Title: "a", Score: 90, Sources: 2, SourceNames: []string{"news", "steam"},
		Category: "GTA", BizCategory: "Gaming", URL: "u",
	}, snap[0])
	assert.Equal(t, 2, snap[1].Rank)

	assert.Len(t, Snapshot(cands, 0), 3)
	assert.Len(t, Snapshot(cands, 10), 3)
	assert.Empty(t, Snapshot(nil, 5))
}
