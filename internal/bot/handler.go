// internal/bot/handler.go
package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"trivia-bot/internal/models"
	"trivia-bot/internal/trivia"
	"trivia-bot/pkg/logger"
)

// Sender is the subset of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Game is the engine surface driven by chat updates.
type Game interface {
	TouchUser(ctx context.Context, chatID int64, user models.Participant) error
	SubmitAnswer(ctx context.Context, eventID uint, choice string, user models.Participant) (models.AnswerOutcome, error)
	BroadcastTo(ctx context.Context, chatID int64) (*models.Event, error)
	CachedRanking(ctx context.Context, chatID int64, period models.Period) (*models.Ranking, error)
}

// Chats is the active chat registry.
type Chats interface {
	Activate(chatID int64) bool
	Deactivate(chatID int64) bool
	Save(ctx context.Context) error
}

type BotHandler struct {
	bot     Sender
	game    Game
	chats   Chats
	slots   []string
	summary string

	wg sync.WaitGroup
}

func NewBotHandler(bot Sender, game Game, chats Chats, slots []string, summaryAt string) *BotHandler {
	return &BotHandler{
		bot:     bot,
		game:    game,
		chats:   chats,
		slots:   slots,
		summary: summaryAt,
	}
}

// Run dispatches updates until ctx is cancelled or the channel closes, then
// waits for in-flight updates.
func (h *BotHandler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer h.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer h.wg.Done()
				h.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	if message.From != nil && (message.Chat.IsGroup() || message.Chat.IsSuperGroup()) {
		if err := h.game.TouchUser(ctx, message.Chat.ID, participant(message.From)); err != nil {
			logger.Error("Failed to touch user", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		}
	}

	if !message.IsCommand() {
		return
	}
	switch message.Command() {
	case "start", "help":
		h.handleStart(ctx, message)
	case "stop":
		h.handleStop(ctx, message)
	case "ranking":
		h.handleRanking(ctx, message)
	case "pregunta_ahora":
		h.handleQuestionNow(ctx, message)
	}
}

func (h *BotHandler) handleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if h.chats.Activate(chatID) {
		logger.Info("Chat registered", zap.Int64("chat_id", chatID))
		if err := h.chats.Save(ctx); err != nil {
			logger.Error("Failed to persist chat registry", zap.Error(err))
		}
	}
	h.reply(message, helpText(h.slots, h.summary))
}

func (h *BotHandler) handleStop(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if h.chats.Deactivate(chatID) {
		logger.Info("Chat deactivated", zap.Int64("chat_id", chatID))
		if err := h.chats.Save(ctx); err != nil {
			logger.Error("Failed to persist chat registry", zap.Error(err))
		}
	}
	h.reply(message, "🛑 Trivia pausada en este chat. Usa /start para reactivarla.")
}

func (h *BotHandler) handleRanking(ctx context.Context, message *tgbotapi.Message) {
	period, err := trivia.ParsePeriod(firstArg(message.CommandArguments()))
	if err != nil {
		period = models.PeriodDay
	}

	ranking, err := h.game.CachedRanking(ctx, message.Chat.ID, period)
	if err != nil {
		logger.Error("Failed to compute ranking", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		return
	}
	if ranking.Empty() {
		h.reply(message, "Aún no hay datos para el ranking.")
		return
	}
	h.reply(message, FormatRanking(ranking))
}

func (h *BotHandler) handleQuestionNow(ctx context.Context, message *tgbotapi.Message) {
	if _, err := h.game.BroadcastTo(ctx, message.Chat.ID); err != nil {
		logger.Error("Failed to post immediate question", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		h.reply(message, "No se pudo lanzar la pregunta.")
	}
}

func (h *BotHandler) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	eventID, choice, err := ParseAnswer(query.Data)
	if err != nil || query.From == nil {
		h.answerCallback(query, "")
		return
	}

	outcome, err := h.game.SubmitAnswer(ctx, eventID, choice, participant(query.From))
	if err != nil {
		logger.Error("Failed to submit answer", zap.Uint("event_id", eventID), zap.Int64("user_id", query.From.ID), zap.Error(err))
		h.answerCallback(query, "")
		return
	}
	logger.Debug("Answer processed",
		zap.Uint("event_id", eventID),
		zap.Int64("user_id", query.From.ID),
		zap.Stringer("outcome", outcome))
	h.answerCallback(query, outcomeText(outcome))
}

func (h *BotHandler) answerCallback(query *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, text)); err != nil {
		logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func (h *BotHandler) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.bot.Send(msg); err != nil {
		logger.Error("Failed to send reply", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}

func participant(u *tgbotapi.User) models.Participant {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return models.Participant{ID: u.ID, Name: name}
}

func firstArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
