// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package connectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresConnector hands out the shared gorm handle and owns its lifecycle.
type PostgresConnector interface {
	// DB returns the gorm handle bound to ctx.
	DB(ctx context.Context) *gorm.DB
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// UseQueryCache installs a gorm query-cache plugin backed by the given
	// cacher. Call at most once, before serving traffic.
	UseQueryCache(cacher caches.Cacher) error
	// Migrate applies pending SQL migrations from the configured path.
	Migrate() error
	Close() error
}

type postgresConnector struct {
	cfg    configs.PostgresConfig
	logger commons.Logger
	db     *gorm.DB
}

// NewPostgresConnector opens the database and tunes the connection pool.
func NewPostgresConnector(cfg configs.PostgresConfig, logger commons.Logger) (PostgresConnector, error) {
	gormLogLevel := gormlogger.Warn
	if logger.Level() == zapcore.DebugLevel {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Dsn()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolving sql.DB handle: %w", err)
	}
	if cfg.MaxOpenConnection > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnection)
	}
	if cfg.MaxIdealConnection > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdealConnection)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Infof("postgres connected host=%s db=%s", cfg.Host, cfg.DbName)
	return &postgresConnector{cfg: cfg, logger: logger, db: db}, nil
}

func (c *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *postgresConnector) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *postgresConnector) UseQueryCache(cacher caches.Cacher) error {
	plugin := &caches.Caches{Conf: &caches.Config{
		Easer:  true,
		Cacher: cacher,
	}}
	if err := c.db.Use(plugin); err != nil {
		return fmt.Errorf("installing gorm query cache: %w", err)
	}
	c.logger.Info("gorm query cache enabled")
	return nil
}

func (c *postgresConnector) Migrate() error {
	path := c.cfg.MigrationPath
	if path == "" {
		path = "migrations"
	}
	m, err := migrate.New("file://"+path, c.cfg.Url())
	if err != nil {
		return fmt.Errorf("initializing migrations from %s: %w", path, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			c.logger.Debug("migrations already up to date")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}
	c.logger.Info("migrations applied")
	return nil
}

func (c *postgresConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
