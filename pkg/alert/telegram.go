package alert

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends notifications to a chat through a bot.
type Telegram struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a new Telegram notifier. The bot is authenticated on
// the first send.
func NewTelegram(token string, chatID int64) *Telegram {
	return &Telegram{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) api() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) Send(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.chatID == 0 {
		return fmt.Errorf("chat id not configured")
	}
	bot, err := t.api()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatTelegram(n))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatTelegram renders n as Telegram HTML.
func FormatTelegram(n *Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>#%d %s</b>\n", statusEmoji(n), n.Rank, html.EscapeString(n.Title))
	fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(n.Body))
	fmt.Fprintf(&b, "Score %.1f | %s | %s (%s)\n",
		n.Score, html.EscapeString(strings.Join(n.Sources, ", ")),
		html.EscapeString(n.Category), html.EscapeString(n.BizCategory))
	for _, sig := range n.topSignals() {
		fmt.Fprintf(&b, "• <a href=\"%s\">%s</a> [%s]\n",
			html.EscapeString(sig.URL), html.EscapeString(sig.Title), sig.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
