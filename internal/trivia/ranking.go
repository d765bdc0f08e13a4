// internal/trivia/ranking.go
package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trivia-bot/internal/models"
	"trivia-bot/pkg/logger"
)

var ErrUnknownPeriod = errors.New("unknown period")

// ParsePeriod accepts the Spanish and English period names. An empty string
// means the current day.
func ParsePeriod(s string) (models.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dia", "día", "day", "hoy":
		return models.PeriodDay, nil
	case "semana", "week":
		return models.PeriodWeek, nil
	case "mes", "month":
		return models.PeriodMonth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// PeriodBounds returns the [start, end) range of the period containing now,
// computed on the local calendar of loc. Weeks start on Monday.
func PeriodBounds(now time.Time, loc *time.Location, period models.Period) (time.Time, time.Time) {
	local := now.In(loc)
	y, m, d := local.Date()

	switch period {
	case models.PeriodWeek:
		offset := (int(local.Weekday()) + 6) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7)
	case models.PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1)
	}
}

// Rank computes the ranking of a chat for the period containing the current
// time. A period without events yields an empty ranking.
func (s *Service) Rank(ctx context.Context, chatID int64, period models.Period) (*models.Ranking, error) {
	start, end := PeriodBounds(s.now(), s.loc, period)
	ranking := &models.Ranking{
		ChatID:          chatID,
		Period:          period,
		Start:           start,
		End:             end,
		Rows:            []models.RankRow{},
		Roster:          []models.RosterEntry{},
		NonParticipants: []models.RosterEntry{},
	}

	ids, err := s.repo.EventIDsBetween(ctx, chatID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if len(ids) == 0 {
		return ranking, nil
	}

	rows, err := s.repo.RankRows(ctx, chatID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate answers: %w", err)
	}
	if rows != nil {
		ranking.Rows = rows
	}

	roster, err := s.roster(ctx, chatID)
	if err != nil {
		return nil, err
	}
	ranking.Roster = roster

	answered, err := s.repo.AnsweredUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list answered users: %w", err)
	}
	for _, entry := range roster {
		if !answered[entry.UserID] {
			ranking.NonParticipants = append(ranking.NonParticipants, entry)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetRanking(ctx, ranking); err != nil {
			logger.Warn("Failed to cache ranking", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
	return ranking, nil
}

// CachedRanking serves a recent snapshot when one is cached and computes the
// ranking otherwise.
func (s *Service) CachedRanking(ctx context.Context, chatID int64, period models.Period) (*models.Ranking, error) {
	if s.cache != nil {
		start, _ := PeriodBounds(s.now(), s.loc, period)
		ranking, err := s.cache.GetRanking(ctx, chatID, period, start)
		if err == nil && ranking != nil {
			return ranking, nil
		}
		if err != nil {
			logger.Debug("Ranking cache miss", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
	return s.Rank(ctx, chatID, period)
}

// TopStreaks lists the chat's longest current streaks.
func (s *Service) TopStreaks(ctx context.Context, chatID int64, n int) ([]models.StreakEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.GetStreaks(ctx, chatID)
		if err == nil && entries != nil {
			if n > 0 && len(entries) > n {
				entries = entries[:n]
			}
			return entries, nil
		}
	}
	return s.repo.ChatStreaks(ctx, chatID, n)
}

func (s *Service) roster(ctx context.Context, chatID int64) ([]models.RosterEntry, error) {
	cutoff := s.now().Add(-s.rosterWindow).Unix()
	roster, err := s.repo.Roster(ctx, chatID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if roster == nil {
		roster = []models.RosterEntry{}
	}
	return roster, nil
}
