// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package pipeline_api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	internal_analyzer "github.com/speakwise/api/session-api/internal/analyzer"
	internal_notifier "github.com/speakwise/api/session-api/internal/notifier"
	internal_pipeline "github.com/speakwise/api/session-api/internal/pipeline"
	internal_profile "github.com/speakwise/api/session-api/internal/profile"
	internal_session "github.com/speakwise/api/session-api/internal/session"
	internal_transcriber "github.com/speakwise/api/session-api/internal/transcriber"
	internal_verifier "github.com/speakwise/api/session-api/internal/verifier"
	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
	storage_files "github.com/speakwise/pkg/storages/file-storage"
	"github.com/speakwise/pkg/utils"
)

type pipelineApi struct {
	cfg          *config.AppConfig
	logger       commons.Logger
	postgres     connectors.PostgresConnector
	verifier     internal_verifier.Verifier
	orchestrator internal_pipeline.Orchestrator
}

// NewPipelineApi wires the delivery endpoint and the full processing chain
// behind it. Fails when the configured speech-to-text or analysis provider is
// unknown, so a bad deploy dies at startup instead of on the first delivery.
func NewPipelineApi(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
) (*pipelineApi, error) {
	transcriber, err := internal_transcriber.New(cfg.TranscriberConfig, logger)
	if err != nil {
		return nil, err
	}
	analyzer, err := internal_analyzer.New(cfg.AnalyzerConfig, logger)
	if err != nil {
		return nil, err
	}

	var notifier internal_notifier.Notifier
	if cfg.WebhookHost != "" || cfg.MailerConfig.OpsEmail != "" {
		notifier = internal_notifier.NewNotifier(cfg.WebhookHost, cfg.MailerConfig, logger)
	}

	store := internal_session.NewStore(postgres, logger)
	return &pipelineApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		verifier: internal_verifier.New(cfg.SchedulerConfig, logger),
		orchestrator: internal_pipeline.NewOrchestrator(
			store,
			internal_profile.NewAggregator(postgres, logger),
			storage_files.NewStorage(cfg.AssetStoreConfig, logger),
			transcriber,
			analyzer,
			notifier,
			logger,
		),
	}, nil
}

type runRequest struct {
	SessionId string `json:"sessionId"`
}

// Run receives one pipeline-run delivery from the scheduler. The signature
// is checked over the raw body before anything is parsed; the queue treats
// any non-2xx as a failed delivery and redelivers.
//
// @Router /v1/session/pipeline/run [post]
func (pApi *pipelineApi) Run(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read delivery body"})
		return
	}

	signature := c.GetHeader(utils.HEADER_SIGNATURE_KEY)
	if err := pApi.verifier.Verify(signature, body); err != nil {
		pApi.logger.Warnf("rejected pipeline delivery: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid delivery signature"})
		return
	}

	var request runRequest
	if err := json.Unmarshal(body, &request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery body must be JSON"})
		return
	}
	if strings.TrimSpace(request.SessionId) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	ctx := commons.WithTraceId(c.Request.Context(), request.SessionId)
	if err := pApi.orchestrator.Run(ctx, request.SessionId); err != nil {
		perr, ok := internal_pipeline.AsPipelineError(err)
		if !ok {
			pApi.logger.Errorf("pipeline run failed session=%s: %v", request.SessionId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline run failed"})
			return
		}
		c.JSON(perr.HTTPStatus(), gin.H{
			"code":  perr.Code,
			"step":  perr.Step,
			"error": perr.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": request.SessionId, "status": "DONE"})
}
