// internal/models/trivia.go
package models

// Question is one entry of the question bank.
type Question struct {
	Text    string   `json:"q"`
	Choices []string `json:"choices"`
	Answer  string   `json:"answer"`
}

// ChatUser is a participant profile scoped to one chat.
type ChatUser struct {
	ChatID     int64  `json:"chat_id" gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	UserID     int64  `json:"user_id" gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Name       string `json:"name" gorm:"column:name"`
	LastSeenTS int64  `json:"last_seen_ts" gorm:"column:last_seen_ts;index"`
}

func (ChatUser) TableName() string {
	return "users"
}

// Event is one posted question with its answer window. Times are unix seconds.
type Event struct {
	ID       uint     `json:"id" gorm:"column:id;primaryKey"`
	ChatID   int64    `json:"chat_id" gorm:"column:chat_id;not null;index:idx_events_chat_start"`
	Question string   `json:"question" gorm:"column:question;not null"`
	Choices  []string `json:"choices" gorm:"column:choices;serializer:json;not null"`
	Answer   string   `json:"-" gorm:"column:answer;not null"`
	StartTS  int64    `json:"start_ts" gorm:"column:start_ts;not null;index:idx_events_chat_start"`
	EndTS    int64    `json:"end_ts" gorm:"column:end_ts;not null"`
}

// Answer is unique per (event, user).
type Answer struct {
	EventID uint   `gorm:"column:event_id;primaryKey;autoIncrement:false"`
	UserID  int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Choice  string `gorm:"column:choice;not null"`
	Correct bool   `gorm:"column:correct;not null"`
	TS      int64  `gorm:"column:ts;not null"`
}

type Streak struct {
	ChatID  int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	UserID  int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Current int   `gorm:"column:streak;not null;default:0"`
	Best    int   `gorm:"column:best_streak;not null;default:0"`
}

// BadgeAward is unique per (chat, user, code, period key).
type BadgeAward struct {
	ChatID    int64  `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	UserID    int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Code      string `gorm:"column:code;primaryKey"`
	PeriodKey string `gorm:"column:period_key;primaryKey"`
	Name      string `gorm:"column:name;not null"`
	Period    string `gorm:"column:period;not null"`
	AwardedTS int64  `gorm:"column:ts;not null"`
}

func (BadgeAward) TableName() string {
	return "badges"
}

// ActiveChat persists the chat registry across restarts.
type ActiveChat struct {
	ChatID    int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	Active    bool  `gorm:"column:active;not null"`
	UpdatedTS int64 `gorm:"column:updated_ts"`
}
