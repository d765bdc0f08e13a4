// internal/models/dto.go
package models

import (
	"fmt"
	"time"
)

// Participant identifies whoever triggered an update on the chat side.
type Participant struct {
	ID   int64
	Name string
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

type AnswerOutcome int

const (
	OutcomeUnknownEvent AnswerOutcome = iota
	OutcomeExpired
	OutcomeDuplicate
	OutcomeCorrect
	OutcomeIncorrect
)

func (o AnswerOutcome) String() string {
	switch o {
	case OutcomeUnknownEvent:
		return "unknown_event"
	case OutcomeExpired:
		return "expired"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	}
	return "invalid"
}

type RankRow struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Hits   int    `json:"hits"`
	Faults int    `json:"faults"`
}

type RosterEntry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type Ranking struct {
	ChatID          int64         `json:"chat_id"`
	Period          Period        `json:"period"`
	Start           time.Time     `json:"start"`
	End             time.Time     `json:"end"`
	Rows            []RankRow     `json:"rows"`
	Roster          []RosterEntry `json:"roster"`
	NonParticipants []RosterEntry `json:"non_participants"`
}

// Empty reports whether there is nothing worth presenting for the period.
func (r *Ranking) Empty() bool {
	return len(r.Rows) == 0 && len(r.Roster) == 0
}

type CloseSummary struct {
	EventID     uint     `json:"event_id"`
	ChatID      int64    `json:"chat_id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Correct     int      `json:"correct"`
	Incorrect   int      `json:"incorrect"`
	NotAnswered int      `json:"not_answered"`
	Winners     []string `json:"winners"`
}

type BadgeKind string

const (
	BadgeKindHits   BadgeKind = "hits"
	BadgeKindStreak BadgeKind = "streak"
)

type Badge struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        BadgeKind `json:"kind"`
	Threshold   int       `json:"threshold"`
}

type UserBadges struct {
	UserID int64   `json:"user_id"`
	Name   string  `json:"name"`
	Badges []Badge `json:"badges"`
}

type DailySummary struct {
	ChatID  int64        `json:"chat_id"`
	Date    string       `json:"date"`
	Ranking *Ranking     `json:"ranking"`
	Awards  []UserBadges `json:"awards"`
}

type StreakEntry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Streak int    `json:"streak"`
	Best   int    `json:"best"`
}

// DisplayName falls back to a synthetic label when no name is stored.
func DisplayName(name string, userID int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("ID %d", userID)
}
