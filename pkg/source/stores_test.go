package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/rechargeradar/pkg/category"
)

func jsonServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const steamCategoriesJSON = `{
	"top_sellers": {"items": [{"id": 2, "name": "Cozy Farm", "discount_percent": 0}]},
	"specials": {"items": [{"id": 3, "name": "Hades", "discount_percent": 100}]},
	"new_releases": {"items": [{"id": 4, "name": "Monster Hunter Wilds", "discount_percent": 10}]},
	"coming_soon": {"items": [{"id": 5, "name": "Hollow Knight Silksong", "discount_percent": 0}]}
}`

func TestSteamCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{
		"/api/featured/":           `{"featured_win": [{"id": 1, "name": "Elden Ring", "discount_percent": 50}]}`,
		"/api/featuredcategories/": steamCategoriesJSON,
	})
	s := NewSteam(category.NewDefault())
	s.baseURL = srv.URL

	sigs, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Elden Ring", "Cozy Farm", "Hades"}, titles(sigs))

	assert.InDelta(t, 80.0, sigs[0].Score, 1e-9)
	assert.Equal(t, "Featured, 50% off", sigs[0].Desc)
	assert.Equal(t, "https://store.steampowered.com/app/1", sigs[0].URL)
	assert.Equal(t, []string{"Elden Ring"}, sigs[0].Meta.Categories)

	assert.InDelta(t, 70.0, sigs[1].Score, 1e-9)
	assert.Equal(t, "Top Sellers", sigs[1].Desc)
	assert.Empty(t, sigs[1].Meta.Categories)

	assert.InDelta(t, 80.0, sigs[2].Score, 1e-9)
}

func TestSteamKeepsPartialResults(t *testing.T) {
	srv := jsonServer(t, map[string]string{
		"/api/featuredcategories/": steamCategoriesJSON,
	})
	s := NewSteam(category.NewDefault())
	s.baseURL = srv.URL

	sigs, err := s.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steam featured")
	assert.Len(t, sigs, 2)
}

func TestSteamNewCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/api/featuredcategories/": steamCategoriesJSON})
	s := NewSteamNew(category.NewDefault())
	s.baseURL = srv.URL

	sigs, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, "New Release, 10% off", sigs[0].Desc)
	assert.Equal(t, 60.0, sigs[0].Score)
	assert.Equal(t, []string{"Monster Hunter"}, sigs[0].Meta.Categories)

	assert.Equal(t, "Coming Soon", sigs[1].Desc)
	assert.Equal(t, 45.0, sigs[1].Score)
	assert.Equal(t, []string{"Steam"}, sigs[1].Meta.Categories)
}

func TestSteamSpyCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/api.php": `{
		"10": {"appid": 10, "name": "Counter-Strike 2", "ccu": 1000000, "players_2weeks": 9000000},
		"20": {"appid": 20, "name": "Cozy Farm", "ccu": 50000, "players_2weeks": 300000},
		"30": {"appid": 30, "name": "Dota 2", "ccu": 250000, "players_2weeks": 5000000}
	}`})
	s := NewSteamSpy(category.NewDefault())
	s.baseURL = srv.URL

	sigs, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Counter-Strike 2", "Dota 2", "Cozy Farm"}, titles(sigs))

	assert.Equal(t, 100.0, sigs[0].Score)
	assert.Equal(t, []string{"Counter-Strike"}, sigs[0].Meta.Categories)
	assert.Equal(t, 50.0, sigs[1].Score)
	assert.Equal(t, []string{"Steam"}, sigs[1].Meta.Categories)
	assert.Equal(t, 10.0, sigs[2].Score)
	assert.Equal(t, "https://store.steampowered.com/app/20", sigs[2].URL)
}

func TestWikiCollect(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/Fortnite/daily/20261009/20261015":
			fmt.Fprint(w, `{"items":[{"views":3000},{"views":2000}]}`)
		case "/Minecraft/daily/20261009/20261015":
			fmt.Fprint(w, `{"items":[{"views":400}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	wk := NewWiki(category.NewDefault(), []string{"Fortnite", "Minecraft", "Missing_Page"})
	wk.baseURL = srv.URL
	wk.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

	sigs, err := wk.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiki Missing_Page")
	assert.Len(t, paths, 3)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Fortnite", sigs[0].Title)
	assert.Equal(t, "5000 views this week", sigs[0].Desc)
	assert.Equal(t, 2.5, sigs[0].Score)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Fortnite", sigs[0].URL)
	assert.Equal(t, []string{"Fortnite"}, sigs[0].Meta.Categories)
}

func TestCheapSharkCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/api/1.0/deals": `[
		{"title": "Hades", "dealID": "abc", "savings": "75.0", "normalPrice": "24.99", "salePrice": "6.24"},
		{"title": "Call of Duty: Black Ops", "dealID": "def", "savings": "bogus", "normalPrice": "", "salePrice": ""}
	]`})
	c := NewCheapShark(category.NewDefault())
	c.baseURL = srv.URL

	sigs, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, 85.0, sigs[0].Score)
	assert.Equal(t, "$6 (was $25, 75% off)", sigs[0].Desc)
	assert.Equal(t, "https://www.cheapshark.com/redirect?dealID=abc", sigs[0].URL)
	assert.Equal(t, []string{"Steam"}, sigs[0].Meta.Categories)

	assert.Equal(t, 40.0, sigs[1].Score)
	assert.Equal(t, []string{"Call of Duty"}, sigs[1].Meta.Categories)
}

func TestGOGCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/games/ajax/filtered": `{"products": [
		{"title": "The Witcher 3", "url": "/game/the_witcher_3", "price": {"discount": 80}},
		{"title": "Cozy Farm", "url": "", "price": {"discount": 0}}
	]}`})
	g := NewGOG(category.NewDefault())
	g.baseURL = srv.URL

	sigs, err := g.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, 74.0, sigs[0].Score)
	assert.Equal(t, "GOG Popular, 80% off", sigs[0].Desc)
	assert.Equal(t, "https://www.gog.com/game/the_witcher_3", sigs[0].URL)
	assert.Equal(t, "https://www.gog.com", sigs[1].URL)
	assert.Equal(t, 50.0, sigs[1].Score)
}

func TestHumbleCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/store/api/search": `{"results": [
		{"human_name": "Minecraft", "human_url": "minecraft", "current_price": {"amount": 15}, "full_price": {"amount": 30}},
		{"human_name": "", "human_url": "mystery-bundle", "current_price": null, "full_price": null},
		{"human_name": "", "human_url": ""}
	]}`})
	h := NewHumble(category.NewDefault())
	h.baseURL = srv.URL

	sigs, err := h.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Minecraft", "mystery-bundle"}, titles(sigs))
	assert.Equal(t, 70.0, sigs[0].Score)
	assert.Equal(t, "Humble bestseller, 50% off", sigs[0].Desc)
	assert.Equal(t, "https://www.humblebundle.com/store/minecraft", sigs[0].URL)
	assert.Equal(t, []string{"Minecraft"}, sigs[0].Meta.Categories)
	assert.Equal(t, 55.0, sigs[1].Score)
}

func TestGamerPowerCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/api/giveaways": `[
		{"title": "Free Apex Legends pack", "platforms": "PC, Steam", "worth": "$9.99", "type": "DLC", "open_giveaway_url": "https://gp.example/1"},
		{"title": "Mystery key", "platforms": "", "worth": "", "type": "Game", "open_giveaway_url": "https://gp.example/2"}
	]`})
	g := NewGamerPower(category.NewDefault())
	g.baseURL = srv.URL

	sigs, err := g.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "DLC on PC, Steam ($9.99)", sigs[0].Desc)
	assert.Equal(t, []string{"Steam", "Apex Legends"}, sigs[0].Meta.Categories)
	assert.Equal(t, 65.0, sigs[0].Score)
	assert.Equal(t, "Game on  (N/A)", sigs[1].Desc)
	assert.Equal(t, []string{"Gift Cards"}, sigs[1].Meta.Categories)
}

func TestEpicCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/freeGamesPromotions": `{"data": {"Catalog": {"searchStore": {"elements": [
		{"title": "Hades", "promotions": {"promotionalOffers": [{"x": 1}], "upcomingPromotionalOffers": []}},
		{"title": "Call of Duty: Black Ops", "promotions": {"promotionalOffers": [], "upcomingPromotionalOffers": [{"x": 1}]}},
		{"title": "No promo", "promotions": null},
		{"title": "Expired", "promotions": {"promotionalOffers": [], "upcomingPromotionalOffers": []}}
	]}}}}`})
	e := NewEpic(category.NewDefault())
	e.baseURL = srv.URL

	sigs, err := e.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, 75.0, sigs[0].Score)
	assert.Equal(t, "FREE NOW on Epic", sigs[0].Desc)
	assert.Equal(t, []string{"Fortnite"}, sigs[0].Meta.Categories)
	assert.Equal(t, "free_now", sigs[0].Meta.Extra["status"])

	assert.Equal(t, 55.0, sigs[1].Score)
	assert.Equal(t, []string{"Call of Duty"}, sigs[1].Meta.Categories)
}

func TestFreeToGameCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{"/api/games": `[
		{"title": "Warframe", "genre": "Shooter", "platform": "PC (Windows)", "game_url": "https://ftg.example/warframe"},
		{"title": "Overwatch 2", "genre": "Shooter", "platform": "PC (Windows)", "game_url": "https://ftg.example/ow2"}
	]`})
	f := NewFreeToGame(category.NewDefault())
	f.baseURL = srv.URL

	sigs, err := f.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "Free Shooter on PC (Windows)", sigs[0].Desc)
	assert.Equal(t, []string{"Gift Cards"}, sigs[0].Meta.Categories)
	assert.Equal(t, []string{"Overwatch"}, sigs[1].Meta.Categories)
	assert.Equal(t, 45.0, sigs[1].Score)
}

func TestAnimeCollect(t *testing.T) {
	srv := jsonServer(t, map[string]string{
		"/v4/top/anime":        `{"data": [{"title": "One Piece", "score": 8.7, "members": 2500000, "url": "https://mal.example/op"}]}`,
		"/v4/seasons/upcoming": `{"data": [{"title": "Frieren Season 2", "score": null, "members": 250000, "url": "https://mal.example/fr"}]}`,
	})
	a := NewAnime(category.NewDefault())
	a.baseURL = srv.URL
	a.pause = 0

	sigs, err := a.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, 100.0, sigs[0].Score)
	assert.Equal(t, "Top airing, MAL 8.70, 2500000 fans", sigs[0].Desc)
	assert.Equal(t, []string{"Crunchyroll"}, sigs[0].Meta.Categories)

	assert.Equal(t, 50.0, sigs[1].Score)
	assert.Equal(t, "Upcoming, 250000 anticipating", sigs[1].Desc)
	assert.Equal(t, []string{"Crunchyroll"}, sigs[1].Meta.Categories)
}

func TestCompetitorCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, browserUserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `<html><head><title>Shop</title><script>var promo = "Roblox";</script></head>
<body>
<h1>Buy Steam Wallet codes</h1>
<p>Instant delivery.</p>
<h2>Netflix gift cards</h2>
</body></html>`)
	}))
	defer srv.Close()

	c := NewCompetitor(category.NewDefault(), []Site{{Name: "Shop", URL: srv.URL}})

	sigs, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Shop: Steam", "Shop: Netflix", "Shop: Gift Cards"}, titles(sigs))
	for _, s := range sigs {
		assert.Equal(t, 45.0, s.Score)
		assert.Equal(t, srv.URL, s.URL)
		require.Len(t, s.Meta.Categories, 1)
	}
	assert.Equal(t, "Shop promoting Netflix", sigs[1].Desc)
}

func TestCompetitorSkipsBrokenSite(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewCompetitor(category.NewDefault(), []Site{{Name: "Down", URL: srv.URL}})
	sigs, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "competitor Down")
	assert.Empty(t, sigs)
}
