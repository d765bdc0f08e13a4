// internal/trivia/summary.go
package trivia

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"trivia-bot/internal/models"
	"trivia-bot/pkg/logger"
)

// DailySummary posts the end-of-day summary to every active chat.
func (s *Service) DailySummary(ctx context.Context) {
	for _, chatID := range s.chats.Active() {
		if _, err := s.SendSummary(ctx, chatID); err != nil {
			logger.Error("Failed to send daily summary", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// SendSummary builds and posts the summary of one chat. Quiet chats get no
// message and a nil summary.
func (s *Service) SendSummary(ctx context.Context, chatID int64) (*models.DailySummary, error) {
	summary, err := s.SummaryFor(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		logger.Debug("Skipping daily summary for quiet chat", zap.Int64("chat_id", chatID))
		return nil, nil
	}
	if s.notifier != nil {
		if err := s.notifier.PostDailySummary(ctx, summary); err != nil {
			return summary, fmt.Errorf("failed to post daily summary: %w", err)
		}
	}
	return summary, nil
}

// SummaryFor ranks the current day and awards its badges. It returns nil for
// a chat with neither ranked answers nor a recent roster.
func (s *Service) SummaryFor(ctx context.Context, chatID int64) (*models.DailySummary, error) {
	ranking, err := s.Rank(ctx, chatID, models.PeriodDay)
	if err != nil {
		return nil, err
	}
	if ranking.Empty() {
		return nil, nil
	}

	awarded, err := s.AwardDailyBadges(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to award badges: %w", err)
	}

	summary := &models.DailySummary{
		ChatID:  chatID,
		Date:    ranking.Start.Format(periodKeyLayout),
		Ranking: ranking,
		Awards:  groupAwards(awarded, ranking),
	}
	s.publish(chatID, "daily_summary", summary)
	return summary, nil
}

// groupAwards orders award holders by ranking position, then by user id for
// those not ranked today.
func groupAwards(awarded map[int64][]models.Badge, ranking *models.Ranking) []models.UserBadges {
	position := make(map[int64]int, len(ranking.Rows))
	names := make(map[int64]string, len(ranking.Rows)+len(ranking.Roster))
	for _, entry := range ranking.Roster {
		names[entry.UserID] = entry.Name
	}
	for i, row := range ranking.Rows {
		position[row.UserID] = i
		if row.Name != "" {
			names[row.UserID] = row.Name
		}
	}

	out := make([]models.UserBadges, 0, len(awarded))
	for userID, badges := range awarded {
		out = append(out, models.UserBadges{
			UserID: userID,
			Name:   models.DisplayName(names[userID], userID),
			Badges: uniqueBadges(badges),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		pi, iok := position[out[i].UserID]
		pj, jok := position[out[j].UserID]
		if iok != jok {
			return iok
		}
		if iok && pi != pj {
			return pi < pj
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
