// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package health_check_api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
)

const readinessTimeout = 5 * time.Second

type healthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func New(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
) *healthCheckApi {
	return &healthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
	}
}

// Healthz reports process liveness only; it must stay dependency-free so a
// wedged database never restarts the service.
func (hcApi *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": hcApi.cfg.Name,
		"version": hcApi.cfg.Version,
	})
}

// Readiness reports whether the service can take traffic, which for this
// service means the database answers.
func (hcApi *healthCheckApi) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := hcApi.postgres.Ping(ctx); err != nil {
		hcApi.logger.Errorf("readiness check failed, postgres unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "postgres unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
