// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingToken = errors.New("TOKEN is not set")

type Config struct {
	Token         string
	Location      *time.Location
	QuestionsPath string
	DailyTimes    []string
	SummaryTime   string
	Window        time.Duration
	RosterWindow  time.Duration

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	Port        string
	CORSOrigins []string

	JWTSecret            string
	OperatorUser         string
	OperatorPasswordHash string

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Token:                os.Getenv("TOKEN"),
		QuestionsPath:        getEnv("QUESTIONS_PATH", "questions_lightgun_es.json"),
		DBDriver:             getEnv("DB_DRIVER", "sqlite"),
		DBPath:               getEnv("DB_PATH", "trivia.db"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               getEnv("DB_NAME", "trivia"),
		DBSSLMode:            getEnv("DB_SSLMODE", "disable"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		Port:                 getEnv("PORT", "8080"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		OperatorUser:         getEnv("OPERATOR_USER", "admin"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		Debug:                getEnv("DEBUG", "false") == "true",
	}
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	loc, err := time.LoadLocation(getEnv("TZ", "Europe/Madrid"))
	if err != nil {
		return nil, fmt.Errorf("invalid TZ: %w", err)
	}
	cfg.Location = loc

	cfg.DailyTimes, err = ParseSlots(getEnv("DAILY_TIMES", "10:00,12:00,14:00,16:00,18:00,20:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAILY_TIMES: %w", err)
	}
	summary, err := ParseSlots(getEnv("SUMMARY_TIME", "21:00"))
	if err != nil || len(summary) != 1 {
		return nil, fmt.Errorf("invalid SUMMARY_TIME %q", os.Getenv("SUMMARY_TIME"))
	}
	cfg.SummaryTime = summary[0]

	window, err := getEnvInt("QUESTION_WINDOW_SECONDS", 180)
	if err != nil {
		return nil, err
	}
	cfg.Window = time.Duration(window) * time.Second

	days, err := getEnvInt("ROSTER_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cfg.RosterWindow = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

// ParseSlots parses a comma separated list of HH:MM times of day.
func ParseSlots(csv string) ([]string, error) {
	var slots []string
	for _, s := range splitList(csv) {
		if _, err := time.Parse("15:04", s); err != nil {
			return nil, fmt.Errorf("bad time of day %q: %w", s, err)
		}
		slots = append(slots, s)
	}
	if len(slots) == 0 {
		return nil, errors.New("no times of day configured")
	}
	return slots, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
