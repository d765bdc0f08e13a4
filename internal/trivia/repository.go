// internal/trivia/repository.go
package trivia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trivia-bot/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Migrate() error {
	err := r.db.AutoMigrate(
		&models.ChatUser{},
		&models.Event{},
		&models.Answer{},
		&models.Streak{},
		&models.BadgeAward{},
		&models.ActiveChat{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// EventAnswer is one answer joined with the answerer's display name.
type EventAnswer struct {
	UserID  int64
	Name    string
	Choice  string
	Correct bool
	TS      int64
}

// UpsertUser records the user's latest name and last-seen time.
func (r *Repository) UpsertUser(ctx context.Context, user *models.ChatUser) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "last_seen_ts"}),
	}).Create(user).Error
}

// EnsureStreak creates a zeroed streak row unless one exists.
func (r *Repository) EnsureStreak(ctx context.Context, chatID, userID int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Streak{ChatID: chatID, UserID: userID}).Error
}

func (r *Repository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvent returns nil without error when the event does not exist.
func (r *Repository) GetEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// InsertAnswer reports false when the user already answered this event.
func (r *Repository) InsertAnswer(ctx context.Context, answer *models.Answer) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(answer)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// EventAnswers lists an event's answers in the order they arrived.
func (r *Repository) EventAnswers(ctx context.Context, eventID uint) ([]EventAnswer, error) {
	var rows []EventAnswer
	err := r.db.WithContext(ctx).Table("answers AS a").
		Select("a.user_id, COALESCE(u.name, '') AS name, a.choice, a.correct, a.ts").
		Joins("JOIN events e ON e.id = a.event_id").
		Joins("LEFT JOIN users u ON u.chat_id = e.chat_id AND u.user_id = a.user_id").
		Where("a.event_id = ?", eventID).
		Order("a.ts ASC, a.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetStreak loads the user's streak row, creating a zeroed one first if needed.
func (r *Repository) GetStreak(ctx context.Context, chatID, userID int64) (*models.Streak, error) {
	if err := r.EnsureStreak(ctx, chatID, userID); err != nil {
		return nil, err
	}
	var streak models.Streak
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *Repository) SaveStreak(ctx context.Context, streak *models.Streak) error {
	return r.db.WithContext(ctx).Model(&models.Streak{}).
		Where("chat_id = ? AND user_id = ?", streak.ChatID, streak.UserID).
		Updates(map[string]interface{}{
			"streak":      streak.Current,
			"best_streak": streak.Best,
		}).Error
}

// Roster lists users of the chat seen at or after cutoff (unix seconds).
func (r *Repository) Roster(ctx context.Context, chatID, cutoff int64) ([]models.RosterEntry, error) {
	var roster []models.RosterEntry
	err := r.db.WithContext(ctx).Model(&models.ChatUser{}).
		Select("user_id, name").
		Where("chat_id = ? AND last_seen_ts >= ?", chatID, cutoff).
		Order("user_id ASC").
		Scan(&roster).Error
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// EventIDsBetween returns events of the chat started in [start, end).
func (r *Repository) EventIDsBetween(ctx context.Context, chatID, start, end int64) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("chat_id = ? AND start_ts >= ? AND start_ts < ?", chatID, start, end).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RankRows aggregates hits and faults per user over the given events,
// best first.
func (r *Repository) RankRows(ctx context.Context, chatID int64, eventIDs []uint) ([]models.RankRow, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	var rows []models.RankRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.user_id, COALESCE(u.name, '') AS name,
		       SUM(CASE WHEN a.correct THEN 1 ELSE 0 END) AS hits,
		       SUM(CASE WHEN a.correct THEN 0 ELSE 1 END) AS faults
		FROM answers a
		LEFT JOIN users u ON u.chat_id = ? AND u.user_id = a.user_id
		WHERE a.event_id IN ?
		GROUP BY a.user_id, u.name
		ORDER BY hits DESC, faults ASC, a.user_id ASC
	`, chatID, eventIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) AnsweredUserIDs(ctx context.Context, eventIDs []uint) (map[int64]bool, error) {
	answered := make(map[int64]bool)
	if len(eventIDs) == 0 {
		return answered, nil
	}

	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("event_id IN ?", eventIDs).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		answered[id] = true
	}
	return answered, nil
}

// ChatStreaks lists streak rows of a chat, longest current streak first.
func (r *Repository) ChatStreaks(ctx context.Context, chatID int64, limit int) ([]models.StreakEntry, error) {
	var entries []models.StreakEntry
	q := r.db.WithContext(ctx).Table("streaks AS s").
		Select("s.user_id, COALESCE(u.name, '') AS name, s.streak AS streak, s.best_streak AS best").
		Joins("LEFT JOIN users u ON u.chat_id = s.chat_id AND u.user_id = s.user_id").
		Where("s.chat_id = ?", chatID).
		Order("s.streak DESC, s.best_streak DESC, s.user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// InsertBadge reports false when the badge was already awarded for the period.
func (r *Repository) InsertBadge(ctx context.Context, award *models.BadgeAward) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) UserBadges(ctx context.Context, chatID, userID int64) ([]models.BadgeAward, error) {
	var awards []models.BadgeAward
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Order("ts ASC, code ASC").
		Find(&awards).Error
	return awards, err
}

func (r *Repository) LoadActiveChats(ctx context.Context) (map[int64]bool, error) {
	var rows []models.ActiveChat
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	chats := make(map[int64]bool, len(rows))
	for _, row := range rows {
		chats[row.ChatID] = row.Active
	}
	return chats, nil
}

func (r *Repository) SaveActiveChats(ctx context.Context, chats map[int64]bool) error {
	if len(chats) == 0 {
		return nil
	}
	now := time.Now().Unix()
	rows := make([]models.ActiveChat, 0, len(chats))
	for id, active := range chats {
		rows = append(rows, models.ActiveChat{ChatID: id, Active: active, UpdatedTS: now})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "updated_ts"}),
	}).Create(&rows).Error
}
