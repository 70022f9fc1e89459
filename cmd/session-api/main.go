// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	session_routers "github.com/speakwise/api/session-api/router"
	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
	"github.com/speakwise/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("failed to parse configuration: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Fatalf("failed to connect postgres: %v", err)
	}
	defer postgres.Close()

	if cfg.PostgresConfig.Migrate {
		if err := postgres.Migrate(); err != nil {
			logger.Fatalf("failed to run migrations: %v", err)
		}
	}

	if cfg.PostgresConfig.Cache.Enable {
		redis := connectors.NewRedisConnector(cfg.RedisConfig, logger)
		defer redis.Close()
		ttl := time.Duration(cfg.PostgresConfig.Cache.TtlMs) * time.Millisecond
		if err := postgres.UseQueryCache(redis.Cacher(ttl)); err != nil {
			logger.Fatalf("failed to enable query cache: %v", err)
		}
	}

	if utils.FromEnvironmentStr(cfg.Environment).IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.WebHost},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.HEADER_SIGNATURE_KEY},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	session_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	session_routers.SessionApiRoutes(cfg, engine, logger, postgres)
	if err := session_routers.PipelineApiRoutes(cfg, engine, logger, postgres); err != nil {
		logger.Fatalf("failed to mount pipeline routes: %v", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	go func() {
		logger.Infof("%s %s listening on %s env=%s", cfg.Name, cfg.Version, server.Addr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("forced shutdown: %v", err)
	}
}
