package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stylevote/internal/config"
	"stylevote/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database into DB and migrates it.
func Init(cfg config.Config) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open connects to postgres or sqlite. TranslateError is on so duplicate
// keys surface as gorm.ErrDuplicatedKey on both dialects.
func Open(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseType {
	case config.DatabaseSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseURL))
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	logLevel := logger.Warn
	if cfg.LogLevel <= slog.LevelDebug {
		logLevel = logger.Info
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
		// sqlite 把时间存成带时区偏移的文本，统一用 UTC 才能按字符串排序
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DatabaseType == config.DatabaseSQLite {
		// sqlite 只有一个写者，多连接只会换来 SQLITE_BUSY
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	slog.Info("database connection established", "type", cfg.DatabaseType)
	return conn, nil
}

// Migrate creates posts, options, votes and comments, including the
// (user_id, post_id) unique index on votes.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.Post{},
		&models.Option{},
		&models.Vote{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
