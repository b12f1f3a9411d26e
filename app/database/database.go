package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/datumcontrole/category-store/app/config"
	"github.com/datumcontrole/category-store/models"
	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Open connects to the database addressed by cfg.DatabaseURL and checks the
// connection. The returned handle owns a connection pool; release it with Close.
// Connection failures match models.ErrDatabase.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	kind, dsn, err := ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	var pqDB *sql.DB
	switch kind {
	case KindPostgres:
		if cfg.DatabaseDriver == "pq" {
			pqDB, err = sql.Open("postgres", dsn)
			if err != nil {
				return nil, fmt.Errorf("open postgres connection: %w: %w", models.ErrDatabase, err)
			}
			dialector = postgres.New(postgres.Config{Conn: pqDB})
		} else {
			dialector = postgres.Open(dsn)
		}
	case KindSQLite:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(logger, cfg.DBSlowThreshold),
	})
	if err != nil {
		if pqDB != nil {
			_ = pqDB.Close()
		}
		logger.Error().Err(err).Str("driver", string(kind)).Msg("failed to connect to database")
		return nil, fmt.Errorf("open database: %w: %w", models.ErrDatabase, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w: %w", models.ErrDatabase, err)
	}

	if kind == KindSQLite {
		// Every new connection to an in-memory database sees an empty one.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		logger.Error().Err(err).Str("driver", string(kind)).Msg("database ping failed")
		return nil, fmt.Errorf("ping database: %w: %w", models.ErrDatabase, err)
	}

	logger.Info().Str("driver", string(kind)).Msg("database connection established")
	return db, nil
}

// ParseURL picks the database kind from url and returns the DSN its driver
// expects. The "jdbc:" prefix of legacy connection strings is accepted.
func ParseURL(url string) (Kind, string, error) {
	url = strings.TrimPrefix(url, "jdbc:")

	switch {
	case url == "":
		return "", "", fmt.Errorf("database url is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, url, nil
	case strings.HasPrefix(url, "sqlite:"):
		dsn := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite:"), "//")
		if dsn == "" {
			return "", "", fmt.Errorf("database url %q has no path", url)
		}
		return KindSQLite, dsn, nil
	case strings.HasPrefix(url, "file:"), url == ":memory:",
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"), strings.HasSuffix(url, ".sqlite3"):
		return KindSQLite, url, nil
	}
	return "", "", fmt.Errorf("unsupported database url %q", url)
}

// Migrate creates or updates the tables the repositories need.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}); err != nil {
		return fmt.Errorf("migrate category: %w: %w", models.ErrDatabase, err)
	}
	return nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w: %w", models.ErrDatabase, err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w: %w", models.ErrDatabase, err)
	}
	return nil
}
