// pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"trivia-bot/internal/models"
)

const (
	rankingTTL = time.Minute
	streaksTTL = 24 * time.Hour
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func rankingKey(chatID int64, period models.Period, start time.Time) string {
	return fmt.Sprintf("ranking:%d:%s:%d", chatID, period, start.Unix())
}

func rankingPattern(chatID int64) string {
	return fmt.Sprintf("ranking:%d:*", chatID)
}

func streaksKey(chatID int64) string {
	return fmt.Sprintf("streaks:%d", chatID)
}

func (c *RedisCache) SetRanking(ctx context.Context, ranking *models.Ranking) error {
	data, err := json.Marshal(ranking)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rankingKey(ranking.ChatID, ranking.Period, ranking.Start), data, rankingTTL).Err()
}

// GetRanking returns nil without error on a cache miss.
func (c *RedisCache) GetRanking(ctx context.Context, chatID int64, period models.Period, start time.Time) (*models.Ranking, error) {
	data, err := c.client.Get(ctx, rankingKey(chatID, period, start)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ranking models.Ranking
	if err := json.Unmarshal(data, &ranking); err != nil {
		return nil, err
	}
	return &ranking, nil
}

// DeleteRankings drops every cached ranking snapshot of the chat.
func (c *RedisCache) DeleteRankings(ctx context.Context, chatID int64) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, rankingPattern(chatID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) SetStreaks(ctx context.Context, chatID int64, entries []models.StreakEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	key := streaksKey(chatID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Set(ctx, key, data, streaksTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// GetStreaks returns nil without error on a cache miss.
func (c *RedisCache) GetStreaks(ctx context.Context, chatID int64) ([]models.StreakEntry, error) {
	data, err := c.client.Get(ctx, streaksKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.StreakEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
