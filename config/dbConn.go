package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrDatabaseURLMissing = errors.New("DATABASE_URL not set in ENV")

// InitDB opens the database named by url. postgres:// and postgresql://
// URLs use the pgx driver, sqlite:// URLs and plain paths use SQLite.
func InitDB(url string) (*gorm.DB, error) {
	if url == "" {
		return nil, ErrDatabaseURLMissing
	}

	var dialect gorm.Dialector
	isSQLite := true
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialect = postgres.Open(url)
		isSQLite = false
	case strings.HasPrefix(url, "sqlite://"):
		dialect = sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
	default:
		dialect = sqlite.Open(url)
	}

	db, err := gorm.Open(dialect, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if isSQLite {
		// SQLite allows one writer, and every :memory: connection is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	zap.L().Info("database connection established", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}
