// internal/trivia/badges.go
package trivia

import (
	"context"
	"fmt"
	"sort"

	"trivia-bot/internal/models"
)

const periodKeyLayout = "2006-01-02"

var dailyHitBadges = []models.Badge{
	{Code: "BRONCE_DIA", Name: "Medalla de Bronce (Día)", Description: "≥ 3 aciertos hoy", Kind: models.BadgeKindHits, Threshold: 3},
	{Code: "PLATA_DIA", Name: "Medalla de Plata (Día)", Description: "≥ 5 aciertos hoy", Kind: models.BadgeKindHits, Threshold: 5},
	{Code: "ORO_DIA", Name: "Medalla de Oro (Día)", Description: "≥ 6 aciertos hoy", Kind: models.BadgeKindHits, Threshold: 6},
}

var streakBadges = []models.Badge{
	{Code: "RACHA_3", Name: "Racha x3", Description: "3 aciertos seguidos", Kind: models.BadgeKindStreak, Threshold: 3},
	{Code: "RACHA_5", Name: "Racha x5", Description: "5 aciertos seguidos", Kind: models.BadgeKindStreak, Threshold: 5},
}

func BadgeCatalog() []models.Badge {
	out := make([]models.Badge, 0, len(dailyHitBadges)+len(streakBadges))
	out = append(out, dailyHitBadges...)
	return append(out, streakBadges...)
}

// reached returns every badge of table whose threshold value meets. Tiers are
// independent, so several can be reached at once.
func reached(table []models.Badge, value int) []models.Badge {
	var out []models.Badge
	for _, b := range table {
		if value >= b.Threshold {
			out = append(out, b)
		}
	}
	return out
}

// AwardDailyBadges grants today's hit and streak badges for a chat. Badges
// already awarded for today are skipped, so only new awards are returned.
func (s *Service) AwardDailyBadges(ctx context.Context, chatID int64) (map[int64][]models.Badge, error) {
	now := s.now()
	start, end := PeriodBounds(now, s.loc, models.PeriodDay)
	periodKey := start.Format(periodKeyLayout)
	awarded := make(map[int64][]models.Badge)

	award := func(userID int64, b models.Badge) error {
		inserted, err := s.repo.InsertBadge(ctx, &models.BadgeAward{
			ChatID:    chatID,
			UserID:    userID,
			Code:      b.Code,
			PeriodKey: periodKey,
			Name:      b.Name,
			Period:    string(models.PeriodDay),
			AwardedTS: now.Unix(),
		})
		if err != nil {
			return fmt.Errorf("failed to award %s to %d: %w", b.Code, userID, err)
		}
		if inserted {
			awarded[userID] = append(awarded[userID], b)
		}
		return nil
	}

	ids, err := s.repo.EventIDsBetween(ctx, chatID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.RankRows(ctx, chatID, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for _, b := range reached(dailyHitBadges, row.Hits) {
			if err := award(row.UserID, b); err != nil {
				return nil, err
			}
		}
	}

	streaks, err := s.repo.ChatStreaks(ctx, chatID, 0)
	if err != nil {
		return nil, err
	}
	for _, st := range streaks {
		for _, b := range reached(streakBadges, st.Streak) {
			if err := award(st.UserID, b); err != nil {
				return nil, err
			}
		}
	}

	return awarded, nil
}

// uniqueBadges drops repeated badge names and sorts the rest by name.
func uniqueBadges(badges []models.Badge) []models.Badge {
	seen := make(map[string]bool, len(badges))
	out := make([]models.Badge, 0, len(badges))
	for _, b := range badges {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
