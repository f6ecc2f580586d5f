package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/postscout/internal/model"
)

var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends hiring posts to a Telegram chat through a bot.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier logs the bot in with token and targets chatID.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// newTelegramNotifierWithBot wires an already constructed bot.
func newTelegramNotifierWithBot(bot *tgbotapi.BotAPI, chatID int64, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}
}

// Notify sends one HTML message per post. Like the Slack notifier it fails
// only when every message fails.
func (t *TelegramNotifier) Notify(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	failures := 0
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, formatTelegram(p))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error("telegram notification failed", "url", p.URL, "error", err)
			failures++
		}
	}

	if failures == len(posts) {
		return fmt.Errorf("all %d telegram notifications failed", failures)
	}
	t.logger.Info("telegram notifications complete", "sent", len(posts)-failures, "failed", failures)
	return nil
}

func formatTelegram(p model.Post) string {
	return fmt.Sprintf(
		"📣 <b>%s</b>\n\n%s\n\n🔗 <a href=\"%s\">View post</a>",
		html.EscapeString(displayName(p)),
		html.EscapeString(excerpt(p.Content)),
		html.EscapeString(p.URL),
	)
}
