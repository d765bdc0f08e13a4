// internal/questions/bank.go
package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"trivia-bot/internal/models"
	"trivia-bot/pkg/logger"
)

var ErrNoValidQuestions = errors.New("no valid questions loaded")

type Bank struct {
	questions []models.Question

	mu  sync.Mutex
	rng *rand.Rand
}

// Load reads a JSON array of {"q", "choices", "answer"} records and keeps the
// valid ones.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse questions file: %w", err)
	}

	valid := make([]models.Question, 0, len(raw))
	for i, item := range raw {
		var q models.Question
		if err := json.Unmarshal(item, &q); err != nil {
			logger.Warn("Skipping malformed question", zap.Int("index", i), zap.Error(err))
			continue
		}
		if !Valid(q) {
			logger.Warn("Skipping invalid question", zap.Int("index", i), zap.String("q", q.Text))
			continue
		}
		valid = append(valid, q)
	}

	logger.Info("Question bank loaded", zap.Int("valid", len(valid)), zap.Int("total", len(raw)))
	return NewBank(valid)
}

func NewBank(qs []models.Question) (*Bank, error) {
	if len(qs) == 0 {
		return nil, ErrNoValidQuestions
	}
	return &Bank{
		questions: qs,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Valid reports whether q has text, choices, and an answer among its choices.
func Valid(q models.Question) bool {
	if q.Text == "" || len(q.Choices) == 0 || q.Answer == "" {
		return false
	}
	for _, c := range q.Choices {
		if c == q.Answer {
			return true
		}
	}
	return false
}

// Pick returns a uniformly random question. Repeats are allowed.
func (b *Bank) Pick() models.Question {
	b.mu.Lock()
	i := b.rng.Intn(len(b.questions))
	b.mu.Unlock()

	q := b.questions[i]
	q.Choices = append([]string(nil), q.Choices...)
	return q
}

func (b *Bank) Len() int {
	return len(b.questions)
}
