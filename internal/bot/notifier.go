// internal/bot/notifier.go
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trivia-bot/internal/models"
)

// Notifier posts engine output to Telegram chats.
type Notifier struct {
	bot    Sender
	window time.Duration
}

func NewNotifier(bot Sender, window time.Duration) *Notifier {
	return &Notifier{bot: bot, window: window}
}

func (n *Notifier) PostQuestion(ctx context.Context, event *models.Event) error {
	msg := tgbotapi.NewMessage(event.ChatID, FormatQuestion(event, n.window))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = AnswerKeyboard(event)
	_, err := n.bot.Send(msg)
	return err
}

func (n *Notifier) PostCloseSummary(ctx context.Context, summary *models.CloseSummary) error {
	msg := tgbotapi.NewMessage(summary.ChatID, FormatCloseSummary(summary))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := n.bot.Send(msg)
	return err
}

func (n *Notifier) PostDailySummary(ctx context.Context, summary *models.DailySummary) error {
	msg := tgbotapi.NewMessage(summary.ChatID, FormatDailySummary(summary))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := n.bot.Send(msg)
	return err
}
