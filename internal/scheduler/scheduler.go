// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"trivia-bot/pkg/logger"
)

type Job = func(ctx context.Context)

// Scheduler fires daily jobs at local times of day and one-shot delayed jobs.
// One-shot jobs are never cancelled once scheduled.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context

	mu      sync.Mutex
	pending int
}

func New(ctx context.Context, loc *time.Location) *Scheduler {
	cl := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx: ctx,
	}
}

// Daily registers job to run every day at hhmm ("HH:MM") in the scheduler zone.
func (s *Scheduler) Daily(name, hhmm string, job Job) error {
	hour, minute, err := ParseHHMM(hhmm)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err = s.cron.AddFunc(expr, func() {
		logger.Info("Running scheduled job", zap.String("job", name), zap.String("at", hhmm))
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s at %s: %w", name, hhmm, err)
	}
	return nil
}

// Once runs job after delay.
func (s *Scheduler) Once(delay time.Duration, job Job) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("One-shot job panicked", zap.Any("panic", r))
			}
		}()
		job(s.ctx)
	})
}

// Pending returns the number of one-shot jobs not yet finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the daily jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func ParseHHMM(hhmm string) (int, int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return t.Hour(), t.Minute(), nil
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
