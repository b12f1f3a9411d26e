// Package config loads the application settings from the environment.
//
// Variables use the DATUMCONTROLE_ prefix; a `.env` file in the working
// directory is read first when present. Unset keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "DATUMCONTROLE_"

type Config struct {
	Env string `koanf:"env" validate:"required,oneof=development production test"`

	HTTPAddr         string        `koanf:"http_addr" validate:"required"`
	HTTPReadTimeout  time.Duration `koanf:"http_read_timeout" validate:"gt=0"`
	HTTPWriteTimeout time.Duration `koanf:"http_write_timeout" validate:"gt=0"`
	HTTPIdleTimeout  time.Duration `koanf:"http_idle_timeout" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	DatabaseURL       string        `koanf:"database_url" validate:"required"`
	DatabaseDriver    string        `koanf:"database_driver" validate:"oneof=pgx pq"`
	DBMaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=0"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime" validate:"gte=0"`
	DBSlowThreshold   time.Duration `koanf:"db_slow_threshold" validate:"gte=0"`

	LogLevel      string `koanf:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat     string `koanf:"log_format" validate:"oneof=json console"`
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `koanf:"log_max_backups" validate:"gte=0"`
}

// Default returns the settings used for every key the environment leaves unset.
func Default() Config {
	return Config{
		Env:               "development",
		HTTPAddr:          ":8080",
		HTTPReadTimeout:   10 * time.Second,
		HTTPWriteTimeout:  10 * time.Second,
		HTTPIdleTimeout:   60 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		DatabaseDriver:    "pgx",
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 30 * time.Minute,
		DBSlowThreshold:   200 * time.Millisecond,
		LogLevel:          "info",
		LogFormat:         "console",
		LogMaxSizeMB:      10,
		LogMaxBackups:     5,
	}
}

// Load reads the given dotenv files (".env" when none are given), then the
// process environment, and validates the result. Missing dotenv files are
// ignored; variables already set in the environment win over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	return LoadWithOverrides(nil, envFiles...)
}

// LoadWithOverrides is Load with explicit values, keyed like the environment
// variables without their prefix (e.g. "database_url"), applied last.
func LoadWithOverrides(overrides map[string]string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
