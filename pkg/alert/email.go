package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"gopkg.in/mail.v2"

	"github.com/elonfeng/rechargeradar/pkg/event"
	"github.com/elonfeng/rechargeradar/pkg/insight"
	"github.com/elonfeng/rechargeradar/pkg/source"
	"github.com/elonfeng/rechargeradar/pkg/trend"
)

const (
	digestOpportunities = 10
	digestEvents        = 10
)

// Digest is the per-scan summary mailed after a scan.
type Digest struct {
	GeneratedAt  time.Time
	Brief        *insight.Brief
	Candidates   []*trend.Candidate
	Events       []event.Event
	SourceCounts map[source.SourceType]int
}

// DigestSender delivers a scan digest.
type DigestSender interface {
	SendDigest(ctx context.Context, d Digest) error
}

// EmailOptions configures SMTP delivery.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email mails the scan digest over SMTP.
type Email struct {
	from   string
	to     []string
	sender mail.Sender
}

// NewEmail creates an SMTP digest sender. Port 465 uses implicit TLS; other
// ports require STARTTLS.
func NewEmail(opts EmailOptions) (*Email, error) {
	if opts.Host == "" || opts.From == "" || len(opts.To) == 0 {
		return nil, errors.New("email: host, from and at least one recipient are required")
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	d := mail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	d.Timeout = sendTimeout
	if !d.SSL {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	return &Email{from: opts.From, to: opts.To, sender: dialSender(d)}, nil
}

func dialSender(d *mail.Dialer) mail.Sender {
	return mail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		s, err := d.Dial()
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Send(from, to, msg)
	})
}

// Recipients returns the configured recipient addresses.
func (e *Email) Recipients() []string { return e.to }

// SendDigest renders d as HTML with a plain-text alternative and mails it.
func (e *Email) SendDigest(ctx context.Context, d Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	html, err := renderDigestHTML(d)
	if err != nil {
		return fmt.Errorf("email: render: %w", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", DigestSubject(d.GeneratedAt))
	m.SetDateHeader("Date", d.GeneratedAt)
	m.SetBody("text/plain", renderDigestText(d))
	m.AddAlternative("text/html", html)

	if err := mail.Send(e.sender, m); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}

// DigestSubject is the mail subject for a scan at t.
func DigestSubject(t time.Time) string {
	return fmt.Sprintf("Recharge Opportunity Scanner | %s | Weekly Opportunity Report", t.Format("2006-01-02"))
}

type digestRow struct {
	Rank     int
	Title    string
	URL      string
	Category string
	Score    string
	Urgency  string
	Revenue  string
	Domain   string
}

type digestView struct {
	Date          string
	Sources       int
	Candidates    int
	Summary       string
	Opportunities []digestRow
	Actions       []string
	Events        []event.Event
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Recharge Opportunity Scanner</title>
<style>
body{font-family:Arial,sans-serif;color:#222;max-width:900px;margin:0 auto}
h1{color:#1a237e}h2{color:#1a237e;border-bottom:2px solid #1a237e;padding-bottom:4px}
table{border-collapse:collapse;width:100%}th{background:#1a237e;color:#fff;text-align:left}
td,th{padding:6px;border:1px solid #ddd;font-size:13px}
.critical{color:#c62828;font-weight:bold}.high{color:#f57f17;font-weight:bold}.muted{color:#808080}
</style></head><body>
<h1>Recharge Opportunity Scanner</h1>
<p class="muted">{{.Date}} | {{.Sources}} sources | {{.Candidates}} candidates</p>
<h2>Executive Summary</h2>
<p>{{.Summary}}</p>
{{if .Opportunities}}<h2>Top Opportunities</h2>
<table><tr><th>#</th><th>Opportunity</th><th>Category</th><th>Score</th><th>Urgency</th><th>Revenue signal</th><th>Source</th></tr>
{{range .Opportunities}}<tr><td>{{.Rank}}</td><td>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</td><td>{{.Category}}</td><td>{{.Score}}</td><td class="{{.Urgency}}">{{.Urgency}}</td><td>{{.Revenue}}</td><td>{{.Domain}}</td></tr>
{{end}}</table>{{end}}
{{if .Actions}}<h2>Actions</h2>
<ul>{{range .Actions}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Events}}<h2>Events (next 60 days)</h2>
<table><tr><th>Event</th><th>Category</th><th>Status</th><th>Details</th></tr>
{{range .Events}}<tr><td>{{.Name}}</td><td>{{.Category}}</td><td class="{{.Urgency}}">{{.Status}}</td><td>{{.Description}}</td></tr>
{{end}}</table>{{end}}
<p class="muted">Generated by rechargeradar</p>
</body></html>`))

func renderDigestHTML(d Digest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, newDigestView(d)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDigestText(d Digest) string {
	v := newDigestView(d)
	var b strings.Builder
	fmt.Fprintf(&b, "Recharge Opportunity Scanner\n%s | %d sources | %d candidates\n\n", v.Date, v.Sources, v.Candidates)
	fmt.Fprintf(&b, "EXECUTIVE SUMMARY\n%s\n", v.Summary)
	if len(v.Opportunities) > 0 {
		b.WriteString("\nTOP OPPORTUNITIES\n")
		for _, o := range v.Opportunities {
			fmt.Fprintf(&b, "%d. %s [%s] score %s, %s\n", o.Rank, o.Title, o.Urgency, o.Score, o.Category)
			if o.Revenue != "" {
				fmt.Fprintf(&b, "   %s\n", o.Revenue)
			}
			if o.URL != "" {
				fmt.Fprintf(&b, "   %s\n", o.URL)
			}
		}
	}
	if len(v.Actions) > 0 {
		b.WriteString("\nACTIONS\n")
		for _, a := range v.Actions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if len(v.Events) > 0 {
		b.WriteString("\nEVENTS (next 60 days)\n")
		for _, e := range v.Events {
			fmt.Fprintf(&b, "- %s (%s): %s - %s\n", e.Name, e.Category, e.Status, e.Description)
		}
	}
	return b.String()
}

func newDigestView(d Digest) digestView {
	v := digestView{
		Date:       d.GeneratedAt.Format("2006-01-02"),
		Candidates: len(d.Candidates),
		Events:     d.Events,
	}
	for _, n := range d.SourceCounts {
		if n > 0 {
			v.Sources++
		}
	}
	if len(v.Events) > digestEvents {
		v.Events = v.Events[:digestEvents]
	}

	brief := d.Brief
	if brief == nil {
		brief = insight.Fallback(d.Candidates)
	}
	v.Summary = brief.Summary
	v.Actions = brief.Actions
	for i, o := range brief.Opportunities {
		if i == digestOpportunities {
			break
		}
		row := digestRow{
			Rank:     i + 1,
			Title:    o.Title,
			Category: o.Category,
			Score:    "-",
			Urgency:  o.Urgency,
			Revenue:  o.RevenueSignal,
		}
		if c := o.Candidate; c != nil {
			row.Score = fmt.Sprintf("%.1f", c.Score)
			row.URL = c.URL
			row.Domain = hostOf(c.URL)
		}
		v.Opportunities = append(v.Opportunities, row)
	}
	return v
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
