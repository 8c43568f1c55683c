package category

// DefaultEntries returns the built-in keyword table.
func DefaultEntries() []Entry {
	return []Entry{
		{"EA Sports FC", []string{"EA FC", "FC 26", "FC 25", "FIFA", "FUT", "TOTY", "TOTS", "Ultimate Team", "FIFA Points", "FC Points", "Madden"}},
		{"PlayStation", []string{"PlayStation", "PS5", "PS4", "PS Plus", "PlayStation Plus", "PSN", "PlayStation Store", "PS VR", "PlayStation Portal", "DualSense"}},
		{"Xbox", []string{"Xbox", "Game Pass", "Xbox Live", "Xbox Series", "Game Pass Ultimate", "Game Pass Core", "Xbox Cloud"}},
		{"Nintendo", []string{"Nintendo", "Switch", "eShop", "Nintendo Direct", "Nintendo Online", "Pokemon", "Zelda", "Mario", "Switch 2", "Animal Crossing"}},
		{"Steam", []string{"Steam", "Steam Deck", "Steam Sale", "Steam Wallet", "Valve", "Steam Next Fest"}},
		{"Fortnite", []string{"Fortnite", "V-Bucks", "Battle Pass", "Epic Games"}},
		{"Call of Duty", []string{"Call of Duty", "COD", "Warzone", "Modern Warfare", "Black Ops", "COD Points"}},
		{"GTA", []string{"GTA", "Grand Theft Auto", "GTA 6", "GTA VI", "GTA Online", "Shark Card", "Rockstar"}},
		{"Minecraft", []string{"Minecraft", "Minecoins", "Minecraft Realms"}},
		{"Roblox", []string{"Roblox", "Robux"}},
		{"Valorant", []string{"Valorant", "Valorant Points"}},
		{"League of Legends", []string{"League of Legends", "LoL", "Riot Points", "Riot Games", "Arcane"}},
		{"Genshin Impact", []string{"Genshin", "Primogems", "Genesis Crystals", "HoYoverse", "Teyvat"}},
		{"Honkai", []string{"Honkai Star Rail", "Honkai Impact", "Penacony"}},
		{"PUBG Mobile", []string{"PUBG Mobile", "PUBG UC", "Royale Pass", "PUBG"}},
		{"Free Fire", []string{"Free Fire", "Free Fire Diamonds"}},
		{"Mobile Legends", []string{"Mobile Legends", "MLBB"}},
		{"Spotify", []string{"Spotify", "Spotify Premium", "Spotify Wrapped"}},
		{"Netflix", []string{"Netflix", "Netflix Games", "Squid Game"}},
		{"Disney Plus", []string{"Disney Plus", "Disney+", "Hotstar", "Star Wars", "Marvel", "Mandalorian"}},
		{"Amazon Prime", []string{"Prime Video", "Prime Gaming", "Amazon Prime", "Twitch Prime"}},
		{"YouTube Premium", []string{"YouTube Premium", "YouTube Music"}},
		{"Apple", []string{"Apple TV", "Apple Music", "iTunes", "App Store", "Apple gift card", "Apple Arcade"}},
		{"Google Play", []string{"Google Play", "Play Store", "Google gift card"}},
		{"Discord", []string{"Discord", "Discord Nitro"}},
		{"Twitch", []string{"Twitch", "Twitch bits", "Twitch sub"}},
		{"Gift Cards", []string{"gift card", "gift cards", "prepaid", "voucher", "e-gift", "top-up", "recharge", "digital code"}},
		{"Paysafecard", []string{"paysafecard", "Neosurf"}},
		{"Razer Gold", []string{"Razer Gold", "Karma Koin"}},
		{"Crunchyroll", []string{"Crunchyroll", "anime streaming", "Funimation", "One Piece", "Dragon Ball", "Demon Slayer", "Jujutsu Kaisen", "My Hero Academia", "Naruto", "Bleach", "anime"}},
		{"Meta Quest", []string{"Meta Quest", "Quest 3", "Oculus", "Quest Pro"}},
		{"Overwatch", []string{"Overwatch", "Overwatch 2"}},
		{"World of Warcraft", []string{"World of Warcraft", "WoW Token", "Blizzard", "Diablo", "Hearthstone"}},
		{"Counter-Strike", []string{"CS2", "Counter-Strike", "CS:GO"}},
		{"Apex Legends", []string{"Apex Legends", "Apex Coins"}},
		{"Dead by Daylight", []string{"Dead by Daylight", "DBD", "Auric Cells"}},
		{"Esports", []string{"esports", "tournament", "championship"}},
		{"Destiny", []string{"Destiny 2", "Bungie"}},
		{"Elden Ring", []string{"Elden Ring", "FromSoftware", "Dark Souls"}},
		{"Monster Hunter", []string{"Monster Hunter", "Capcom", "MH Wilds"}},
	}
}

// DefaultSegments returns the built-in category->segment table.
func DefaultSegments() map[string]string {
	return map[string]string{
		"EA Sports FC":      SegmentGaming,
		"PlayStation":       SegmentGaming,
		"Xbox":              SegmentGaming,
		"Nintendo":          SegmentGaming,
		"Steam":             SegmentGaming,
		"Fortnite":          SegmentGaming,
		"Call of Duty":      SegmentGaming,
		"GTA":               SegmentGaming,
		"Minecraft":         SegmentGaming,
		"Roblox":            SegmentGaming,
		"Valorant":          SegmentGaming,
		"League of Legends": SegmentGaming,
		"Genshin Impact":    SegmentGaming,
		"Honkai":            SegmentGaming,
		"Overwatch":         SegmentGaming,
		"World of Warcraft": SegmentGaming,
		"Counter-Strike":    SegmentGaming,
		"Apex Legends":      SegmentGaming,
		"Dead by Daylight":  SegmentGaming,
		"Esports":           SegmentGaming,
		"Destiny":           SegmentGaming,
		"Elden Ring":        SegmentGaming,
		"Monster Hunter":    SegmentGaming,
		"Meta Quest":        SegmentGaming,
		"Twitch":            SegmentGaming,
		"Discord":           SegmentGaming,
		"PUBG Mobile":       SegmentMobileTopUp,
		"Free Fire":         SegmentMobileTopUp,
		"Mobile Legends":    SegmentMobileTopUp,
		"Spotify":           SegmentEntertainment,
		"Netflix":           SegmentEntertainment,
		"Disney Plus":       SegmentEntertainment,
		"Amazon Prime":      SegmentEntertainment,
		"YouTube Premium":   SegmentEntertainment,
		"Crunchyroll":       SegmentEntertainment,
		"Apple":             SegmentPrepaid,
		"Google Play":       SegmentPrepaid,
		"Gift Cards":        SegmentPrepaid,
		"Paysafecard":       SegmentPrepaid,
		"Razer Gold":        SegmentPrepaid,
	}
}
