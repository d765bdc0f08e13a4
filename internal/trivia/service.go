// internal/trivia/service.go
package trivia

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"trivia-bot/internal/models"
	"trivia-bot/internal/questions"
	"trivia-bot/pkg/logger"
)

const winnersShown = 5

// Notifier delivers engine output to the chat.
type Notifier interface {
	PostQuestion(ctx context.Context, event *models.Event) error
	PostCloseSummary(ctx context.Context, summary *models.CloseSummary) error
	PostDailySummary(ctx context.Context, summary *models.DailySummary) error
}

// Timer runs a job once after a delay.
type Timer interface {
	Once(delay time.Duration, job func(ctx context.Context))
}

// ChatSource lists the chats the game is active in.
type ChatSource interface {
	Active() []int64
}

type RankingCache interface {
	SetRanking(ctx context.Context, ranking *models.Ranking) error
	GetRanking(ctx context.Context, chatID int64, period models.Period, start time.Time) (*models.Ranking, error)
	DeleteRankings(ctx context.Context, chatID int64) error
	SetStreaks(ctx context.Context, chatID int64, entries []models.StreakEntry) error
	GetStreaks(ctx context.Context, chatID int64) ([]models.StreakEntry, error)
}

// Publisher pushes live events to observers of a chat room.
type Publisher interface {
	BroadcastMessage(room string, messageType string, data interface{})
}

type Settings struct {
	Location     *time.Location
	Window       time.Duration
	RosterWindow time.Duration
}

type Service struct {
	repo     *Repository
	bank     *questions.Bank
	chats    ChatSource
	timer    Timer
	notifier Notifier
	cache    RankingCache
	live     Publisher

	loc          *time.Location
	window       time.Duration
	rosterWindow time.Duration
	now          func() time.Time
}

func NewService(repo *Repository, bank *questions.Bank, chats ChatSource, timer Timer, cache RankingCache, live Publisher, settings Settings) *Service {
	loc := settings.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:         repo,
		bank:         bank,
		chats:        chats,
		timer:        timer,
		cache:        cache,
		live:         live,
		loc:          loc,
		window:       settings.Window,
		rosterWindow: settings.RosterWindow,
		now:          time.Now,
	}
}

// SetNotifier attaches the chat transport once it exists.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) ActiveChats() []int64 {
	return s.chats.Active()
}

// Broadcast posts a fresh question to every active chat. A failure in one
// chat is logged and does not stop the others.
func (s *Service) Broadcast(ctx context.Context) {
	chats := s.chats.Active()
	if len(chats) == 0 {
		logger.Debug("No active chats for broadcast")
		return
	}
	for _, chatID := range chats {
		if _, err := s.BroadcastTo(ctx, chatID); err != nil {
			logger.Error("Failed to broadcast question", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// BroadcastTo creates an event in chatID, posts it, and schedules its
// close-out one window later.
func (s *Service) BroadcastTo(ctx context.Context, chatID int64) (*models.Event, error) {
	q := s.bank.Pick()
	start := s.now()
	event := &models.Event{
		ChatID:   chatID,
		Question: q.Text,
		Choices:  q.Choices,
		Answer:   q.Answer,
		StartTS:  start.Unix(),
		EndTS:    start.Add(s.window).Unix(),
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PostQuestion(ctx, event); err != nil {
			return nil, fmt.Errorf("failed to post event %d: %w", event.ID, err)
		}
	}

	eventID := event.ID
	s.timer.Once(s.window, func(ctx context.Context) {
		if _, err := s.CloseEvent(ctx, eventID); err != nil {
			logger.Error("Failed to close event", zap.Uint("event_id", eventID), zap.Error(err))
		}
	})

	logger.Info("Question posted",
		zap.Int64("chat_id", chatID),
		zap.Uint("event_id", event.ID),
		zap.Int64("end_ts", event.EndTS))
	s.publish(chatID, "question", map[string]interface{}{
		"event_id": event.ID,
		"question": event.Question,
		"choices":  event.Choices,
		"end_ts":   event.EndTS,
	})
	return event, nil
}

// TouchUser refreshes a user's profile and makes sure a streak row exists.
func (s *Service) TouchUser(ctx context.Context, chatID int64, user models.Participant) error {
	return s.touch(ctx, chatID, user, s.now().Unix())
}

func (s *Service) touch(ctx context.Context, chatID int64, user models.Participant, ts int64) error {
	err := s.repo.UpsertUser(ctx, &models.ChatUser{
		ChatID:     chatID,
		UserID:     user.ID,
		Name:       user.Name,
		LastSeenTS: ts,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	if err := s.repo.EnsureStreak(ctx, chatID, user.ID); err != nil {
		return fmt.Errorf("failed to ensure streak for %d: %w", user.ID, err)
	}
	return nil
}

// SubmitAnswer records a user's choice for an open event. At most one answer
// per user and event is stored; later attempts report OutcomeDuplicate.
func (s *Service) SubmitAnswer(ctx context.Context, eventID uint, choice string, user models.Participant) (models.AnswerOutcome, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return models.OutcomeUnknownEvent, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if event == nil {
		return models.OutcomeUnknownEvent, nil
	}

	now := s.now().Unix()
	if now > event.EndTS {
		return models.OutcomeExpired, nil
	}

	if err := s.touch(ctx, event.ChatID, user, now); err != nil {
		return models.OutcomeUnknownEvent, err
	}

	correct := choice == event.Answer
	inserted, err := s.repo.InsertAnswer(ctx, &models.Answer{
		EventID: eventID,
		UserID:  user.ID,
		Choice:  choice,
		Correct: correct,
		TS:      now,
	})
	if err != nil {
		return models.OutcomeUnknownEvent, fmt.Errorf("failed to record answer: %w", err)
	}
	if !inserted {
		return models.OutcomeDuplicate, nil
	}
	s.invalidateRankings(ctx, event.ChatID)

	s.publish(event.ChatID, "answer_received", map[string]interface{}{
		"event_id": eventID,
		"user_id":  user.ID,
	})
	if correct {
		return models.OutcomeCorrect, nil
	}
	return models.OutcomeIncorrect, nil
}

// CloseEvent tallies an event, updates the streaks of everyone who answered,
// and posts the closing summary. Unknown events are ignored.
func (s *Service) CloseEvent(ctx context.Context, eventID uint) (*models.CloseSummary, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if event == nil {
		logger.Warn("Close-out for unknown event", zap.Uint("event_id", eventID))
		return nil, nil
	}

	answers, err := s.repo.EventAnswers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	summary := &models.CloseSummary{
		EventID:  event.ID,
		ChatID:   event.ChatID,
		Question: event.Question,
		Answer:   event.Answer,
		Winners:  []string{},
	}
	answered := make(map[int64]bool, len(answers))
	for _, a := range answers {
		answered[a.UserID] = true

		streak, err := s.repo.GetStreak(ctx, event.ChatID, a.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load streak for %d: %w", a.UserID, err)
		}
		streak.Current, streak.Best = NextStreak(streak.Current, streak.Best, a.Correct)
		if err := s.repo.SaveStreak(ctx, streak); err != nil {
			return nil, fmt.Errorf("failed to save streak for %d: %w", a.UserID, err)
		}

		if a.Correct {
			summary.Correct++
			if len(summary.Winners) < winnersShown {
				summary.Winners = append(summary.Winners, models.DisplayName(a.Name, a.UserID))
			}
		} else {
			summary.Incorrect++
		}
	}

	roster, err := s.roster(ctx, event.ChatID)
	if err != nil {
		return nil, err
	}
	for _, entry := range roster {
		if !answered[entry.UserID] {
			summary.NotAnswered++
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PostCloseSummary(ctx, summary); err != nil {
			return summary, fmt.Errorf("failed to post close summary: %w", err)
		}
	}

	s.invalidateRankings(ctx, event.ChatID)
	s.refreshStreakCache(ctx, event.ChatID)
	logger.Info("Event closed",
		zap.Uint("event_id", event.ID),
		zap.Int64("chat_id", event.ChatID),
		zap.Int("correct", summary.Correct),
		zap.Int("incorrect", summary.Incorrect),
		zap.Int("not_answered", summary.NotAnswered))
	s.publish(event.ChatID, "event_closed", summary)
	return summary, nil
}

// invalidateRankings drops cached rankings of a chat once its answers change.
func (s *Service) invalidateRankings(ctx context.Context, chatID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteRankings(ctx, chatID); err != nil {
		logger.Warn("Failed to invalidate cached rankings", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) refreshStreakCache(ctx context.Context, chatID int64) {
	if s.cache == nil {
		return
	}
	entries, err := s.repo.ChatStreaks(ctx, chatID, 0)
	if err != nil {
		logger.Warn("Failed to load streaks for cache", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if err := s.cache.SetStreaks(ctx, chatID, entries); err != nil {
		logger.Warn("Failed to cache streaks", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) publish(chatID int64, messageType string, data interface{}) {
	if s.live == nil {
		return
	}
	s.live.BroadcastMessage(strconv.FormatInt(chatID, 10), messageType, data)
}
