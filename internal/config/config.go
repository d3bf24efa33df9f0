package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"

	defaultDSN = "host=localhost user=postgres password=postgres dbname=stylevote port=5432 sslmode=disable TimeZone=UTC"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	SessionSecret string
	LogLevel      slog.Level

	MaxPageSize int

	// 热度排序的时间衰减参数
	TrendingHalfLife     time.Duration
	TrendingRecencyScale float64

	CacheSize int
	CacheTTL  time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:                 8080,
		DatabaseURL:          defaultDSN,
		DatabaseType:         DatabasePostgres,
		SessionSecret:        "secret_key_change_me",
		LogLevel:             slog.LevelInfo,
		MaxPageSize:          100,
		TrendingHalfLife:     24 * time.Hour,
		TrendingRecencyScale: 10,
		CacheSize:            500,
		CacheTTL:             5 * time.Minute,
	}
}

// Load reads .env (if any), then the environment, then CLI flags.
// Flags win over env, env wins over defaults.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading env vars from system")
	}
	return Parse(args)
}

// Parse is Load without touching .env, so tests can drive it through the
// environment alone.
func Parse(args []string) (Config, error) {
	cfg := Default()

	var (
		port   int
		dsn    string
		dbType string
	)
	fs := flag.NewFlagSet("stylevote", flag.ContinueOnError)
	fs.IntVar(&port, "p", 0, "Server port")
	fs.StringVar(&dsn, "d", "", "Database URL")
	fs.StringVar(&dbType, "t", "", "Database type (postgres or sqlite)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("invalid PORT env variable")
		}
		cfg.Port = p
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.DatabaseType = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}
	if v := os.Getenv("MAX_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, errors.New("invalid MAX_PAGE_SIZE env variable")
		}
		cfg.MaxPageSize = n
	}
	if v := os.Getenv("TRENDING_HALF_LIFE_HOURS"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil || h <= 0 {
			return Config{}, errors.New("invalid TRENDING_HALF_LIFE_HOURS env variable")
		}
		cfg.TrendingHalfLife = time.Duration(h * float64(time.Hour))
	}
	if v := os.Getenv("TRENDING_RECENCY_SCALE"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || s < 0 {
			return Config{}, errors.New("invalid TRENDING_RECENCY_SCALE env variable")
		}
		cfg.TrendingRecencyScale = s
	}
	if v := os.Getenv("CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, errors.New("invalid CACHE_SIZE env variable")
		}
		cfg.CacheSize = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = d
	}

	// CLI overrides env
	if port != 0 {
		cfg.Port = port
	}
	if dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if dbType != "" {
		cfg.DatabaseType = dbType
	}

	if cfg.DatabaseType != DatabasePostgres && cfg.DatabaseType != DatabaseSQLite {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	return cfg, nil
}
