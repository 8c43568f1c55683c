package event

// DefaultCalendar is the built-in calendar of launches, store sales, live-service
// seasons and gifting holidays that move gift card demand.
func DefaultCalendar() []Entry {
	return []Entry{
		{2, 27, 28, "Resident Evil Requiem", "Game Release", "PS5/XSX/Switch 2/PC", 9},
		{3, 19, 20, "Crimson Desert", "Game Release", "PS5/XSX/PC", 8},
		{3, 20, 21, "Saros (Housemarque)", "PlayStation", "PS5 exclusive", 8},
		{3, 27, 28, "007 First Light", "Game Release", "James Bond", 8},
		{3, 15, 31, "Marathon Launch", "PlayStation", "Bungie extraction shooter", 9},
		{8, 15, 16, "Madden NFL 27", "Game Release", "Annual", 8},
		{9, 1, 7, "NBA 2K27", "Game Release", "Annual", 8},
		{9, 25, 30, "EA Sports FC 27", "EA Sports FC", "New FC game", 10},
		{10, 15, 31, "Call of Duty 2026", "Call of Duty", "First on Switch 2", 10},
		{11, 19, 19, "GTA 6 LAUNCH", "GTA", "Biggest release in history", 10},
		{6, 1, 30, "Fable", "Xbox", "Xbox exclusive RPG", 9},
		{10, 1, 31, "Marvel's Wolverine", "PlayStation", "Insomniac PS5", 9},
		{12, 1, 31, "Forza Horizon 6", "Xbox", "Set in Japan", 8},
		{1, 22, 22, "Xbox Developer Direct", "Xbox", "Confirmed", 9},
		{6, 7, 8, "Xbox Games Showcase", "Xbox", "Post-SGF", 9},
		{1, 1, 7, "Game Pass Wave 1", "Xbox", "New additions", 7},
		{2, 1, 7, "Game Pass Feb", "Xbox", "New additions", 7},
		{3, 1, 7, "Game Pass Mar", "Xbox", "New additions", 7},
		{2, 15, 28, "State of Play", "PlayStation", "Feb broadcast", 8},
		{5, 25, 31, "PlayStation Showcase", "PlayStation", "Major", 9},
		{9, 15, 25, "State of Play Fall", "PlayStation", "Sep", 8},
		{1, 1, 7, "PS Plus Jan", "PlayStation", "Monthly free games", 8},
		{2, 1, 7, "PS Plus Feb", "PlayStation", "Monthly free games", 8},
		{3, 1, 7, "PS Plus Mar", "PlayStation", "Monthly free games", 8},
		{4, 1, 7, "PS Plus Apr", "PlayStation", "Monthly free games", 8},
		{5, 1, 7, "PS Plus May", "PlayStation", "Monthly free games", 8},
		{6, 1, 7, "PS Plus Jun", "PlayStation", "Monthly free games", 8},
		{2, 10, 20, "Nintendo Direct Feb", "Nintendo", "Annual pattern", 8},
		{6, 10, 15, "Nintendo Direct Summer", "Nintendo", "SGF period", 9},
		{9, 10, 20, "Nintendo Direct Fall", "Nintendo", "Sep pattern", 8},
		{2, 23, 23, "Steam Next Fest", "Steam", "Feb 23-Mar 2", 7},
		{3, 19, 19, "Steam Spring Sale", "Steam", "Mar 19-26", 9},
		{6, 26, 26, "Steam Summer Sale", "Steam", "Biggest sale", 10},
		{11, 25, 25, "Steam Autumn Sale", "Steam", "Pre-BF", 9},
		{12, 18, 18, "Steam Winter Sale", "Steam", "Through Jan 2", 10},
		{1, 12, 19, "Steam Detective Fest", "Steam", "Mystery games", 8},
		{2, 9, 16, "Steam PvP Fest", "Steam", "Competitive", 8},
		{4, 20, 27, "Steam Medieval Fest", "Steam", "Knights & castles", 8},
		{5, 4, 11, "Steam Deckbuilders Fest", "Steam", "Card strategy", 8},
		{8, 3, 10, "Steam Cyberpunk Fest", "Steam", "Neon dystopian", 8},
		{10, 19, 26, "Steam Next Fest Oct", "Steam", "Fall demos", 9},
		{10, 26, 31, "Steam Scream V", "Steam", "Halloween horror", 9},
		{1, 10, 25, "EA FC TOTY", "EA Sports FC", "Team of the Year", 10},
		{2, 5, 20, "EA FC Future Stars", "EA Sports FC", "Young talents", 8},
		{3, 15, 31, "FUT Birthday", "EA Sports FC", "Anniversary", 8},
		{5, 1, 31, "EA FC TOTS", "EA Sports FC", "Team of the Season", 9},
		{6, 15, 30, "EA FC Futties", "EA Sports FC", "End of cycle", 8},
		{11, 20, 30, "EA FC Black Friday", "EA Sports FC", "Lightning rounds", 9},
		{3, 9, 13, "GDC", "Esports", "San Francisco", 7},
		{3, 26, 29, "PAX East", "Esports", "Boston", 7},
		{4, 27, 30, "iicon (E3 successor)", "Esports", "Las Vegas", 9},
		{6, 5, 8, "Summer Game Fest", "Esports", "LA", 10},
		{8, 26, 30, "Gamescom", "Esports", "Cologne", 9},
		{9, 12, 13, "BlizzCon", "Esports", "Anaheim", 8},
		{9, 17, 21, "Tokyo Game Show", "Esports", "Chiba", 8},
		{12, 5, 12, "The Game Awards", "Esports", "Major reveals", 9},
		{7, 6, 6, "Esports World Cup", "Esports", "Riyadh $70M+", 9},
		{10, 1, 31, "LoL Worlds", "Esports", "NYC", 9},
		{1, 14, 14, "Genshin 6.3", "Genshin Impact", "Lantern Rite", 9},
		{2, 25, 25, "Genshin 6.4", "Genshin Impact", "Varka banner", 9},
		{4, 8, 8, "Genshin 6.5", "Genshin Impact", "Hexenzirkel", 8},
		{8, 12, 12, "Genshin 7.0", "Genshin Impact", "Anniversary", 10},
		{2, 14, 14, "HSR 4.0", "Honkai", "Planarcadia", 9},
		{4, 26, 30, "HSR 2nd Anniversary", "Honkai", "Major rewards", 9},
		{12, 1, 4, "Spotify Wrapped", "Spotify", "Viral", 10},
		{11, 12, 12, "Disney+ Day", "Disney Plus", "Annual", 8},
		{5, 22, 22, "Mandalorian & Grogu", "Disney Plus", "Star Wars film", 9},
		{11, 26, 26, "Stranger Things S5", "Netflix", "Final season", 9},
		{12, 18, 18, "Avengers: Doomsday", "Gift Cards", "Biggest MCU", 10},
		{2, 17, 17, "Chinese New Year", "Gift Cards", "Fire Horse", 9},
		{7, 7, 10, "Amazon Prime Day", "Gift Cards", "Confirmed", 9},
		{11, 11, 11, "Singles Day", "Gift Cards", "World's largest", 9},
		{11, 27, 27, "Black Friday", "Gift Cards", "Peak sales", 10},
		{11, 30, 30, "Cyber Monday", "Gift Cards", "Digital focus", 9},
		{2, 1, 14, "Valentine's Day", "Gift Cards", "Gift peak", 8},
		{5, 1, 12, "Mother's Day", "Gift Cards", "Major gift event", 8},
		{6, 1, 15, "Father's Day", "Gift Cards", "Gaming gifting", 8},
		{12, 1, 24, "Christmas Season", "Gift Cards", "Peak buying", 10},
		{1, 1, 15, "Fortnite Winterfest", "Fortnite", "Holiday event", 8},
		{10, 15, 31, "Fortnitemares", "Fortnite", "Halloween", 8},
		{1, 1, 7, "Winter Anime", "Crunchyroll", "New premieres", 7},
		{4, 1, 7, "Spring Anime", "Crunchyroll", "New premieres", 7},
		{7, 1, 7, "Summer Anime", "Crunchyroll", "New premieres", 7},
		{10, 1, 7, "Fall Anime", "Crunchyroll", "New premieres", 7},
		{2, 1, 1, "Grammy Awards", "Spotify", "Music night", 9},
		{3, 15, 15, "Oscars", "Netflix", "Film night", 9},
		{3, 21, 21, "Monster Hunter Wilds", "Game Release", "Capcom PC/PS5/XSX", 10},
		{2, 28, 28, "Elden Ring Nightreign", "Game Release", "FromSoftware", 9},
	}
}
