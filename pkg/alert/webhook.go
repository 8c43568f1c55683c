package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature-256"

// webhookEvent is the JSON envelope posted to generic webhooks.
type webhookEvent struct {
	Event        string        `json:"event"`
	SentAt       time.Time     `json:"sent_at"`
	Notification *Notification `json:"notification"`
}

// Webhook posts notification envelopes to any HTTP endpoint. A non-empty
// secret signs every request.
type Webhook struct {
	client *http.Client
	url    string
	secret string
	now    func() time.Time
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{client: newHTTPClient(), url: url, secret: secret, now: time.Now}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	body, err := marshalFor("webhook", webhookEvent{
		Event:        "candidate." + string(n.Status),
		SentAt:       w.now().UTC(),
		Notification: n,
	})
	if err != nil {
		return err
	}

	var header http.Header
	if w.secret != "" {
		header = http.Header{SignatureHeader: {Sign(w.secret, body)}}
	}
	return postJSON(ctx, w.client, "webhook", w.url, body, header)
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
