// pkg/database/database.go
package database

import (
	"fmt"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Open connects to the database selected by config.Driver.
func Open(config *Config) (*gorm.DB, error) {
	switch config.Driver {
	case "", "sqlite":
		return NewSQLiteDB(config.Path)
	case "postgres":
		return NewPostgresDB(config)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
}
