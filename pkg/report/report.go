// Package report renders a scan into a Word document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gingfrederik/docx"

	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/insight"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

const (
	maxCandidates = 30
	maxOpps       = 15
	maxEvents     = 20
	rule          = "--------------------------------------------------"
)

const (
	colorGrey  = "808080"
	colorBlue  = "0000FF"
	colorGreen = "008000"
	colorRed   = "C62828"
	colorAmber = "F57F17"
)

// Data is everything a report needs about one scan.
type Data struct {
	GeneratedAt  time.Time
	Candidates   []*trend.Candidate
	Brief        *insight.Brief
	History      trend.History
	Events       []event.Event
	SourceCounts map[source.SourceType]int
}

// Writer writes reports into a directory.
type Writer struct {
	dir string
}

// New creates a writer for dir. The directory is created on first write.
func New(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Filename is the report file name for a scan at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("recharge_report_%s.docx", t.Format("2006-01-02"))
}

// Write renders d and returns the path of the saved document.
func (w *Writer) Write(d Data) (string, error) {
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(w.dir, Filename(d.GeneratedAt))
	if err := Build(d).Save(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

// Build lays out the document without touching the filesystem.
func Build(d Data) *docx.File {
	f := docx.NewFile()

	p := f.AddParagraph()
	p.AddText("Recharge Opportunity Report").Size(20)

	active := 0
	for _, n := range d.SourceCounts {
		if n > 0 {
			active++
		}
	}
	mode := "fallback summary"
	if d.Brief != nil && !d.Brief.Fallback {
		mode = d.Brief.Provider + " summary"
	}
	f.AddParagraph().AddText(fmt.Sprintf("%s | %d sources | %d candidates | %s",
		d.GeneratedAt.Format("2006-01-02 15:04"), active, len(d.Candidates), mode)).Size(10).Color(colorGrey)
	f.AddParagraph()

	if d.Brief != nil {
		writeBrief(f, d.Brief)
	}
	writeEvents(f, d.Events)
	writeCandidates(f, d.Candidates)
	writeMovers(f, d.History)
	writeSources(f, d.SourceCounts)
	return f
}

func heading(f *docx.File, text string) {
	f.AddParagraph() // Spacer
	f.AddParagraph().AddText(text).Size(16)
}

func writeBrief(f *docx.File, b *insight.Brief) {
	heading(f, "Executive Summary")
	f.AddParagraph().AddText(b.Summary)

	if len(b.Opportunities) > 0 {
		heading(f, "Top Opportunities")
		for i, o := range b.Opportunities {
			if i == maxOpps {
				break
			}
			score, srcs := "-", "-"
			if o.Candidate != nil {
				score = fmt.Sprintf("%.1f", o.Candidate.Score)
				srcs = fmt.Sprintf("%d", o.Candidate.Sources)
			}
			p := f.AddParagraph()
			p.AddText(fmt.Sprintf("%d. %s", i+1, o.Title))
			p.AddText(fmt.Sprintf("  [%s]", strings.ToUpper(o.Urgency))).Color(urgencyColor(o.Urgency))

			f.AddParagraph().AddText(fmt.Sprintf("Category: %s | Score: %s | Sources: %s | Confidence: %.0f%%",
				o.Category, score, srcs, o.Confidence*100)).Size(10).Color(colorGrey)
			if o.WhyNow != "" {
				f.AddParagraph().AddText("Why now: " + o.WhyNow)
			}
			if o.RevenueSignal != "" {
				f.AddParagraph().AddText("Revenue signal: " + o.RevenueSignal)
			}
		}
	}

	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Actions", b.Actions},
		{"Predictions", b.Predictions},
		{"Risk Watchlist", b.Risks},
	} {
		if len(sec.items) == 0 {
			continue
		}
		heading(f, sec.title)
		for _, item := range sec.items {
			f.AddParagraph().AddText("- " + item)
		}
	}
}

func writeEvents(f *docx.File, evs []event.Event) {
	if len(evs) == 0 {
		return
	}
	heading(f, "Events (next 60 days)")
	for i, e := range evs {
		if i == maxEvents {
			break
		}
		f.AddParagraph().AddText(fmt.Sprintf("%s | %s | %s | %s",
			truncate(e.Name, 50), e.Category, e.Status, truncate(e.Description, 45))).Color(urgencyColor(e.Urgency))
	}
}

func writeCandidates(f *docx.File, cands []*trend.Candidate) {
	heading(f, "Ranked Candidates")
	if len(cands) == 0 {
		f.AddParagraph().AddText("No candidates this run.")
		return
	}
	for i, c := range cands {
		if i == maxCandidates {
			break
		}
		f.AddParagraph().AddText(fmt.Sprintf("#%d  %s", i+1, c.Title))
		f.AddParagraph().AddText(fmt.Sprintf("Score: %.1f | Sources: %d (%s) | Category: %s | Segment: %s",
			c.Score, c.Sources, strings.Join(c.SourceNames, ", "), c.Category, c.BizCategory)).Color(colorGreen)
		if c.URL != "" {
			f.AddParagraph().AddText(c.URL).Size(10).Color(colorBlue)
		}
	}
}

func writeMovers(f *docx.File, h trend.History) {
	var rising []trend.Movement
	for _, m := range h.Movements {
		if m.Rising() {
			rising = append(rising, m)
		}
	}
	if len(rising) == 0 && len(h.Dropped) == 0 {
		return
	}

	heading(f, "Movers")
	for _, m := range rising {
		line := fmt.Sprintf("NEW  #%d %s (%.1f)", m.Rank, m.Title, m.Score)
		if m.Status == trend.StatusUp {
			line = fmt.Sprintf("UP   #%d (was #%d) %s (%+.1f)", m.Rank, m.PrevRank, m.Title, m.Delta)
		}
		f.AddParagraph().AddText(line).Color(colorGreen)
	}
	for _, e := range h.Dropped {
		f.AddParagraph().AddText(fmt.Sprintf("OUT  was #%d %s", e.Rank, e.Title)).Color(colorRed)
	}
}

func writeSources(f *docx.File, counts map[source.SourceType]int) {
	if len(counts) == 0 {
		return
	}
	heading(f, "Sources")
	for _, st := range source.AllSourceTypes() {
		n, ok := counts[st]
		if !ok {
			continue
		}
		f.AddParagraph().AddText(fmt.Sprintf("%s: %d signals", st, n)).Size(10)
	}
	f.AddParagraph().AddText(rule)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func urgencyColor(u string) string {
	switch u {
	case "critical":
		return colorRed
	case "high":
		return colorAmber
	}
	return colorGrey
}
