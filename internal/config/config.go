package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/rechargeradar/pkg/category"
	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Collector  CollectorConfig  `yaml:"collector"`
	Sources    SourcesConfig    `yaml:"sources"`
	Filter     FilterConfig     `yaml:"filter"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Categories CategoriesConfig `yaml:"categories"`
	Insight    InsightConfig    `yaml:"insight"`
	Report     ReportConfig     `yaml:"report"`
	Events     EventsConfig     `yaml:"events"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the recurring scan.
type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	Timezone   string `yaml:"timezone"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// ParseLocation returns the schedule's time zone, UTC when unset or unknown.
func (s ScheduleConfig) ParseLocation() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CollectorConfig bounds fetcher parallelism.
type CollectorConfig struct {
	Workers     int    `yaml:"workers"`
	TaskTimeout string `yaml:"task_timeout"`
}

// ParseTaskTimeout returns the per-source timeout as time.Duration.
func (c CollectorConfig) ParseTaskTimeout() time.Duration {
	d, err := time.ParseDuration(c.TaskTimeout)
	if err != nil || d <= 0 {
		return source.DefaultTaskTimeout
	}
	return d
}

// SourcesConfig holds configuration for all data sources.
type SourcesConfig struct {
	News       NewsConfig       `yaml:"news"`
	Reddit     RedditConfig     `yaml:"reddit"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Wiki       WikiConfig       `yaml:"wiki"`
	Competitor CompetitorConfig `yaml:"competitor"`
	Steam      Toggle           `yaml:"steam"`
	SteamNew   Toggle           `yaml:"steam_new"`
	SteamSpy   Toggle           `yaml:"steamspy"`
	CheapShark Toggle           `yaml:"cheapshark"`
	GamerPower Toggle           `yaml:"gamerpower"`
	Epic       Toggle           `yaml:"epic"`
	GOG        Toggle           `yaml:"gog"`
	Humble     Toggle           `yaml:"humble"`
	FreeToGame Toggle           `yaml:"freetogame"`
	Anime      Toggle           `yaml:"anime"`
}

// Toggle is the configuration of a source with no settings of its own.
type Toggle struct {
	Enabled bool `yaml:"enabled"`
}

// NewsConfig for the news collector. Empty topics are derived from the
// category table.
type NewsConfig struct {
	Enabled bool          `yaml:"enabled"`
	Topics  []string      `yaml:"topics"`
	Feeds   []source.Feed `yaml:"feeds"`
}

// RedditConfig for the Reddit collector. Credentials are optional.
type RedditConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Subreddits   []string `yaml:"subreddits"`
}

// YouTubeConfig for the YouTube collector. The API key only adds view counts.
type YouTubeConfig struct {
	Enabled  bool             `yaml:"enabled"`
	APIKey   string           `yaml:"api_key"`
	Channels []source.Channel `yaml:"channels"`
}

// WikiConfig for the Wikipedia pageviews collector.
type WikiConfig struct {
	Enabled bool     `yaml:"enabled"`
	Pages   []string `yaml:"pages"`
}

// CompetitorConfig for the competitor page scanner.
type CompetitorConfig struct {
	Enabled bool          `yaml:"enabled"`
	Sites   []source.Site `yaml:"sites"`
}

// FilterConfig configures the mass-appeal filter.
type FilterConfig struct {
	ExcludePhrases []string `yaml:"exclude_phrases"`
}

// ScoringConfig overrides parts of the built-in scoring tables. Zero values
// keep the defaults.
type ScoringConfig struct {
	Weights            map[string]float64     `yaml:"weights"`
	DefaultWeight      *float64               `yaml:"default_weight"`
	Ranges             map[string]trend.Range `yaml:"ranges"`
	Confidence         map[int]float64        `yaml:"confidence"`
	MatchThreshold     float64                `yaml:"match_threshold"`
	PrefilterThreshold float64                `yaml:"prefilter_threshold"`
	TopN               int                    `yaml:"top_n"`
}

// Tables returns the built-in tables with the overrides applied.
func (s ScoringConfig) Tables() *trend.Tables {
	t := trend.DefaultTables()
	for k, v := range s.Weights {
		t.Weights[source.SourceType(k)] = v
	}
	if s.DefaultWeight != nil {
		t.DefaultWeight = *s.DefaultWeight
	}
	for k, v := range s.Ranges {
		t.Ranges[source.SourceType(k)] = v
	}
	for k, v := range s.Confidence {
		t.Confidence[k] = v
	}
	if s.MatchThreshold > 0 {
		t.MatchThreshold = s.MatchThreshold
	}
	if s.PrefilterThreshold > 0 {
		t.PrefilterThreshold = s.PrefilterThreshold
	}
	if s.TopN > 0 {
		t.TopN = s.TopN
	}
	return t
}

// CategoriesConfig overrides the keyword tables. Entries replaces the built-in
// table; Extra adds keywords to existing categories or appends new ones.
type CategoriesConfig struct {
	Entries  []category.Entry  `yaml:"entries"`
	Extra    []category.Entry  `yaml:"extra"`
	Segments map[string]string `yaml:"segments"`
}

// Classifier builds the category classifier with the overrides applied.
func (c CategoriesConfig) Classifier() *category.Classifier {
	entries := category.DefaultEntries()
	if len(c.Entries) > 0 {
		entries = c.Entries
	}

	index := make(map[string]int, len(entries))
	merged := make([]category.Entry, len(entries))
	for i, e := range entries {
		merged[i] = category.Entry{Name: e.Name, Keywords: append([]string(nil), e.Keywords...)}
		index[e.Name] = i
	}
	for _, e := range c.Extra {
		if i, ok := index[e.Name]; ok {
			merged[i].Keywords = append(merged[i].Keywords, e.Keywords...)
			continue
		}
		index[e.Name] = len(merged)
		merged = append(merged, e)
	}

	segments := category.DefaultSegments()
	for k, v := range c.Segments {
		segments[k] = v
	}
	return category.New(merged, segments)
}

// InsightConfig configures the optional AI brief.
type InsightConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "gemini", "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
	Timeout  string `yaml:"timeout"`
}

// ParseTimeout returns the AI call timeout as time.Duration.
func (i InsightConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(i.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// useProvider enables the brief with the given provider. The configured model
// is kept unless the provider changes.
func (i *InsightConfig) useProvider(provider, model, key string) {
	if i.Provider != provider || i.Model == "" {
		i.Model = model
	}
	i.Provider = provider
	i.APIKey = key
	i.Enabled = true
}

// ReportConfig configures the Word report.
type ReportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// EventsConfig configures the events calendar. Extra entries are appended
// to the built-in calendar.
type EventsConfig struct {
	Enabled bool          `yaml:"enabled"`
	Extra   []event.Entry `yaml:"extra"`
}

// Calendar returns the calendar to project, or nil when disabled.
func (e EventsConfig) Calendar() []event.Entry {
	if !e.Enabled {
		return nil
	}
	return append(event.DefaultCalendar(), e.Extra...)
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	MinScore float64        `yaml:"min_score"`
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// EmailConfig for the SMTP scan digest.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Ready reports whether every setting needed to send mail is present.
func (e EmailConfig) Ready() bool {
	return e.Enabled && e.Host != "" && e.Username != "" && e.Password != "" && e.From != "" && len(e.To) > 0
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// TelegramConfig for Telegram bot alerts.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig configures logging. Format is "console", "json" or "auto".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	on := Toggle{Enabled: true}
	return &Config{
		Database: DatabaseConfig{Path: "./rechargeradar.db"},
		Schedule: ScheduleConfig{
			Cron:     "0 6 * * 1",
			Timezone: "UTC",
		},
		Collector: CollectorConfig{
			Workers:     source.DefaultWorkers,
			TaskTimeout: "90s",
		},
		Sources: SourcesConfig{
			News:       NewsConfig{Enabled: true, Feeds: source.DefaultFeeds()},
			Reddit:     RedditConfig{Enabled: true, Subreddits: source.DefaultSubreddits},
			YouTube:    YouTubeConfig{Enabled: true, Channels: source.DefaultChannels()},
			Wiki:       WikiConfig{Enabled: true, Pages: source.DefaultWikiPages},
			Competitor: CompetitorConfig{Enabled: true, Sites: source.DefaultSites()},
			Steam:      on,
			SteamNew:   on,
			SteamSpy:   on,
			CheapShark: on,
			GamerPower: on,
			Epic:       on,
			GOG:        on,
			Humble:     on,
			FreeToGame: on,
			Anime:      on,
		},
		Insight: InsightConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "2m",
		},
		Report: ReportConfig{Enabled: true, Dir: "./reports"},
		Events: EventsConfig{Enabled: true},
		Alerts: AlertsConfig{
			MinScore: 50,
			Email:    EmailConfig{Host: "smtp.gmail.com", Port: 587},
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "auto"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that would make scoring or serving misbehave.
func (c *Config) Validate() error {
	var errs []error
	for k, w := range c.Scoring.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("scoring.weights.%s is negative", k))
		}
	}
	for k, r := range c.Scoring.Ranges {
		if r.Ceiling < r.Floor {
			errs = append(errs, fmt.Errorf("scoring.ranges.%s has ceiling below floor", k))
		}
	}
	if t := c.Scoring.MatchThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("scoring.match_threshold %v not in [0,1]", t))
	}
	if t := c.Scoring.PrefilterThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("scoring.prefilter_threshold %v not in [0,1]", t))
	}
	switch c.Insight.Provider {
	case "", "gemini", "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("insight.provider %q unknown", c.Insight.Provider))
	}
	if p := c.Alerts.Email.Port; p < 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("alerts.email.port %d out of range", p))
	}
	for i, e := range c.Events.Extra {
		if e.Month < 1 || e.Month > 12 || e.StartDay < 1 || e.EndDay < e.StartDay || e.EndDay > 31 {
			errs = append(errs, fmt.Errorf("events.extra[%d] %q has invalid dates", i, e.Name))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECHARGERADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.Sources.YouTube.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.Telegram.Token = v
		cfg.Alerts.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Alerts.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		cfg.Alerts.Email.To = splitList(v)
		cfg.Alerts.Email.Enabled = true
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.Alerts.Email.From = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Alerts.Email.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Alerts.Email.Port = p
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Alerts.Email.Username = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.Alerts.Email.Password = v
	}
	// Later keys win, so Gemini is preferred when several are set.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Insight.useProvider("openai", "gpt-4o-mini", v)
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Insight.useProvider("anthropic", "claude-3-5-haiku-latest", v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Insight.useProvider("gemini", "gemini-2.0-flash", v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
