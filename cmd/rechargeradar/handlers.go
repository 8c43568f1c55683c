package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/rechargeradar/internal/config"
	"github.com/elonfeng/rechargeradar/internal/scheduler"
	"github.com/elonfeng/rechargeradar/internal/store"
	"github.com/elonfeng/rechargeradar/pkg/alert"
	"github.com/elonfeng/rechargeradar/pkg/category"
	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/insight"
	"github.com/elonfeng/rechargeradar/pkg/report"
	"github.com/elonfeng/rechargeradar/pkg/server"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	console := cfg.Format == "console" ||
		(cfg.Format != "json" && isatty.IsTerminal(os.Stderr.Fd()))
	if console {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// app holds everything a command needs, wired from config.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	db         *store.SQLiteStore
	classifier *category.Classifier
	engine     *trend.Engine
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log)

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	classifier := cfg.Categories.Classifier()
	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		classifier: classifier,
		engine:     trend.NewEngine(db, cfg.Scoring.Tables(), classifier, log),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

func (a *app) buildSources() []source.Source {
	cfg, c := a.cfg, a.classifier
	filter := source.NewFilter(cfg.Filter.ExcludePhrases)
	var sources []source.Source

	if cfg.Sources.News.Enabled {
		sources = append(sources, source.NewNews(c, filter, cfg.Sources.News.Topics, cfg.Sources.News.Feeds))
	}
	if cfg.Sources.Reddit.Enabled {
		sources = append(sources, source.NewReddit(c, filter,
			cfg.Sources.Reddit.ClientID,
			cfg.Sources.Reddit.ClientSecret,
			cfg.Sources.Reddit.Subreddits,
		))
	}
	if cfg.Sources.Steam.Enabled {
		sources = append(sources, source.NewSteam(c))
	}
	if cfg.Sources.SteamNew.Enabled {
		sources = append(sources, source.NewSteamNew(c))
	}
	if cfg.Sources.YouTube.Enabled {
		sources = append(sources, source.NewYouTube(c, cfg.Sources.YouTube.APIKey, cfg.Sources.YouTube.Channels))
	}
	if cfg.Sources.Wiki.Enabled {
		sources = append(sources, source.NewWiki(c, cfg.Sources.Wiki.Pages))
	}
	if cfg.Sources.Competitor.Enabled {
		sources = append(sources, source.NewCompetitor(c, cfg.Sources.Competitor.Sites))
	}
	if cfg.Sources.CheapShark.Enabled {
		sources = append(sources, source.NewCheapShark(c))
	}
	if cfg.Sources.SteamSpy.Enabled {
		sources = append(sources, source.NewSteamSpy(c))
	}
	if cfg.Sources.GamerPower.Enabled {
		sources = append(sources, source.NewGamerPower(c))
	}
	if cfg.Sources.Epic.Enabled {
		sources = append(sources, source.NewEpic(c))
	}
	if cfg.Sources.GOG.Enabled {
		sources = append(sources, source.NewGOG(c))
	}
	if cfg.Sources.Humble.Enabled {
		sources = append(sources, source.NewHumble(c))
	}
	if cfg.Sources.FreeToGame.Enabled {
		sources = append(sources, source.NewFreeToGame(c))
	}
	if cfg.Sources.Anime.Enabled {
		sources = append(sources, source.NewAnime(c))
	}

	return sources
}

func (a *app) buildCollector(only []string) (*source.Collector, error) {
	all := source.NewCollector(a.buildSources(), a.cfg.Collector.Workers, a.cfg.Collector.ParseTaskTimeout(), a.log)
	if len(only) == 0 {
		return all, nil
	}

	names := make([]string, 0, len(only))
	for _, s := range only {
		names = append(names, strings.ToLower(strings.TrimSpace(s)))
	}
	c := all.Only(names)
	if len(c.Sources()) == 0 {
		return nil, fmt.Errorf("no matching sources for: %s", strings.Join(only, ", "))
	}
	return c, nil
}

// buildSummarizer returns nil when no provider is configured; the scanner
// then uses the fallback brief.
func (a *app) buildSummarizer(ctx context.Context) insight.Summarizer {
	ic := a.cfg.Insight
	if !ic.Enabled || ic.APIKey == "" {
		return nil
	}
	client, err := insight.New(ctx, insight.Options{
		Provider: ic.Provider,
		Model:    ic.Model,
		APIKey:   ic.APIKey,
		BaseURL:  ic.BaseURL,
		Timeout:  ic.ParseTimeout(),
		Calendar: a.cfg.Events.Calendar(),
	}, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("summarizer disabled")
		return nil
	}
	a.log.Info().Str("provider", client.Provider()).Str("model", ic.Model).Msg("summarizer enabled")
	return client
}

func (a *app) buildAlertManager() *alert.Manager {
	cfg := a.cfg.Alerts
	var notifiers []alert.Notifier

	if cfg.Slack.Enabled && cfg.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Slack.WebhookURL))
	}
	if cfg.Discord.Enabled && cfg.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Discord.WebhookURL))
	}
	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Secret))
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		notifiers = append(notifiers, alert.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID))
	}

	m := alert.NewManager(notifiers)
	if m.HasNotifiers() {
		a.log.Info().Strs("notifiers", m.Names()).Msg("alerts enabled")
	}
	return m
}

// buildDigest returns nil unless SMTP delivery is fully configured.
func (a *app) buildDigest() alert.DigestSender {
	ec := a.cfg.Alerts.Email
	if !ec.Ready() {
		if ec.Enabled {
			a.log.Warn().Msg("email digest enabled but smtp settings are incomplete")
		}
		return nil
	}
	e, err := alert.NewEmail(alert.EmailOptions{
		Host:     ec.Host,
		Port:     ec.Port,
		Username: ec.Username,
		Password: ec.Password,
		From:     ec.From,
		To:       ec.To,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("email digest disabled")
		return nil
	}
	a.log.Info().Strs("to", e.Recipients()).Msg("email digest enabled")
	return e
}

func (a *app) buildReports(dir string) *report.Writer {
	if dir != "" {
		return report.New(dir)
	}
	if !a.cfg.Report.Enabled {
		return nil
	}
	return report.New(a.cfg.Report.Dir)
}

func (a *app) buildScanner(ctx context.Context, collector scheduler.Collector) *scheduler.Scanner {
	return scheduler.NewScanner(scheduler.ScannerConfig{
		Collector:  collector,
		Engine:     a.engine,
		Summarizer: a.buildSummarizer(ctx),
		Reports:    a.buildReports(""),
		Alerts:     a.buildAlertManager(),
		Digest:     a.buildDigest(),
		Calendar:   a.cfg.Events.Calendar(),
		MinScore:   a.cfg.Alerts.MinScore,
		Log:        a.log,
	})
}

func sourceTypes(sources []source.Source) []source.SourceType {
	out := make([]source.SourceType, len(sources))
	for i, s := range sources {
		out[i] = s.Name()
	}
	return out
}

func runScan(ctx context.Context, only []string, jsonOutput bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	collector, err := a.buildCollector(only)
	if err != nil {
		return err
	}
	out, err := a.buildScanner(ctx, collector).RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if jsonOutput {
		return writeJSON(map[string]any{
			"run":        out.Result.Run,
			"candidates": out.Result.Candidates,
			"history":    out.Result.History,
			"brief":      out.Brief,
			"sources":    out.SourceCounts,
			"report":     out.ReportPath,
			"alerts":     out.Alerts,
			"warnings":   out.Warnings,
		})
	}

	fmt.Printf("run %s: %d signals -> %d candidates in %s\n\n",
		out.Result.Run.ID, out.Result.SignalCount, len(out.Result.Candidates), out.Duration.Round(time.Second))
	if err := printSnapshot(out.Result.Snapshot); err != nil {
		return err
	}
	if out.Brief != nil && out.Brief.Summary != "" {
		fmt.Printf("\n%s\n", out.Brief.Summary)
	}
	if out.ReportPath != "" {
		fmt.Printf("\nreport: %s\n", out.ReportPath)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

func runCandidates(ctx context.Context, jsonOutput bool, minScore float64, limit int) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.db.LatestRun(ctx)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("no scans yet (run: rechargeradar scan)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}

	entries, err := a.db.ListSnapshot(ctx, run.ID, 0)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}
	var kept []store.SnapshotEntry
	for _, e := range entries {
		if e.Score < minScore {
			continue
		}
		kept = append(kept, e)
		if limit > 0 && len(kept) == limit {
			break
		}
	}

	if jsonOutput {
		return writeJSON(kept)
	}
	fmt.Printf("run %s (%s)\n\n", run.ID, run.StartedAt.Format(time.RFC3339))
	return printSnapshot(kept)
}

func runHistory(ctx context.Context, jsonOutput bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	prev, h, err := a.engine.History(ctx, "")
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("no scans yet (run: rechargeradar scan)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if jsonOutput {
		return writeJSON(map[string]any{"previous": prev, "history": h})
	}
	if prev == nil {
		fmt.Println("first scan, nothing to compare with")
	} else {
		fmt.Printf("compared with run %s (%s)\n\n", prev.ID, prev.StartedAt.Format(time.RFC3339))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPREV\tSTATUS\tDELTA\tTITLE")
	for _, m := range h.Movements {
		prevRank := "-"
		if m.PrevRank > 0 {
			prevRank = fmt.Sprintf("%d", m.PrevRank)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%+.1f\t%s\n", m.Rank, prevRank, m.Status, m.Delta, m.Title)
	}
	for _, d := range h.Dropped {
		fmt.Fprintf(w, "-\t%d\tdropped\t\t%s\n", d.Rank, d.Title)
	}
	return w.Flush()
}

func runReport(ctx context.Context, dir string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.db.LatestRun(ctx)
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}
	entries, err := a.db.ListSnapshot(ctx, run.ID, 0)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}
	counts, err := a.db.CountSignalsBySource(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("count signals: %w", err)
	}
	_, h, err := a.engine.History(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	cands := candidatesFromSnapshot(entries)
	brief := insight.Fallback(cands)
	if s := a.buildSummarizer(ctx); s != nil {
		if b, err := s.Summarize(ctx, cands); err != nil {
			a.log.Warn().Err(err).Msg("summarizer failed, using fallback brief")
		} else {
			brief = b
		}
	}

	w := a.buildReports(dir)
	if w == nil {
		w = report.New(".")
	}
	path, err := w.Write(report.Data{
		GeneratedAt:  run.StartedAt,
		Candidates:   cands,
		Brief:        brief,
		History:      h,
		Events:       event.Upcoming(a.cfg.Events.Calendar(), run.StartedAt),
		SourceCounts: counts,
	})
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runEvents(at time.Time, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	evs := event.Upcoming(cfg.Events.Calendar(), at)
	if jsonOutput {
		return writeJSON(evs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tEVENT\tCATEGORY\tPRIORITY\tDETAILS")
	for _, e := range evs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.Status, e.Name, e.Category, e.Priority, e.Description)
	}
	return w.Flush()
}

// candidatesFromSnapshot rebuilds the display fields of persisted
// candidates. Signals are not part of a snapshot.
func candidatesFromSnapshot(entries []store.SnapshotEntry) []*trend.Candidate {
	out := make([]*trend.Candidate, len(entries))
	for i, e := range entries {
		out[i] = &trend.Candidate{
			Title:       e.Title,
			Score:       e.Score,
			Sources:     e.Sources,
			SourceNames: e.SourceNames,
			Category:    e.Category,
			BizCategory: e.BizCategory,
			URL:         e.URL,
		}
	}
	return out
}

func runServe(ctx context.Context, port int) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	collector, err := a.buildCollector(nil)
	if err != nil {
		return err
	}
	scanner := a.buildScanner(ctx, collector)
	srv := server.New(a.db, a.engine, sourceTypes(collector.Sources()), scanner, port, a.log).
		WithCalendar(a.cfg.Events.Calendar())
	return srv.ListenAndServe(ctx)
}

func runDaemon(ctx context.Context, port int) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	collector, err := a.buildCollector(nil)
	if err != nil {
		return err
	}
	scanner := a.buildScanner(ctx, collector)

	sched, err := scheduler.New(scanner, a.cfg.Schedule.Cron, a.cfg.Schedule.ParseLocation(), a.cfg.Schedule.RunOnStart, a.log)
	if err != nil {
		return err
	}
	srv := server.New(a.db, a.engine, sourceTypes(collector.Sources()), scanner, port, a.log).
		WithCalendar(a.cfg.Events.Calendar())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	err = g.Wait()
	a.log.Info().Msg("shut down")
	return err
}

func printSnapshot(entries []store.SnapshotEntry) error {
	if len(entries) == 0 {
		fmt.Println("no candidates")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tSOURCES\tCATEGORY\tSEGMENT\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%.1f\t%d\t%s\t%s\t%s\n",
			e.Rank, e.Score, e.Sources, e.Category, e.BizCategory, e.Title)
	}
	return w.Flush()
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
