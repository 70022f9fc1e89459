// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package session_api

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	internal_session "github.com/speakwise/api/session-api/internal/session"
	"github.com/speakwise/config"
	scheduler_client "github.com/speakwise/pkg/clients/scheduler"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
	storage_files "github.com/speakwise/pkg/storages/file-storage"
	"github.com/speakwise/pkg/utils"
)

// uploadSizeLimit caps a single audio upload. Practice recordings run a few
// minutes; anything past this is a client bug, not speech.
const uploadSizeLimit = 32 << 20

type sessionApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	postgres  connectors.PostgresConnector
	store     internal_session.Store
	storage   storage_files.Storage
	scheduler scheduler_client.SchedulerClient
}

func NewSessionApi(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
) *sessionApi {
	return &sessionApi{
		cfg:       cfg,
		logger:    logger,
		postgres:  postgres,
		store:     internal_session.NewStore(postgres, logger),
		storage:   storage_files.NewStorage(cfg.AssetStoreConfig, logger),
		scheduler: scheduler_client.NewSchedulerClient(cfg.SchedulerConfig, logger),
	}
}

type createSessionRequest struct {
	UserId string `json:"userId"`
}

// Create registers a new practice session for a user.
//
// @Router /v1/session/create [post]
func (sApi *sessionApi) Create(c *gin.Context) {
	var request createSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a userId"})
		return
	}
	if strings.TrimSpace(request.UserId) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	sessionId, err := sApi.store.Save(c.Request.Context(), &internal_entity.Session{
		UserId: strings.TrimSpace(request.UserId),
	})
	if err != nil {
		sApi.logger.Errorf("failed to create session user=%s: %v", request.UserId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create session"})
		return
	}

	sApi.logger.Infof("session created session=%s user=%s", sessionId, request.UserId)
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionId,
		"status":    internal_entity.SessionCreated,
	})
}

// UploadAudio accepts the session's recording as multipart form data
// (field "audio"), stores it and enqueues the processing pipeline.
//
// @Router /v1/session/:sessionId/audio [post]
func (sApi *sessionApi) UploadAudio(c *gin.Context) {
	sessionId := c.Param("sessionId")
	sess, err := sApi.store.Get(c.Request.Context(), sessionId)
	if err != nil {
		if errors.Is(err, internal_session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		sApi.logger.Errorf("failed to load session session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load session"})
		return
	}

	// Audio may be replaced while the session is still waiting, but once a
	// pipeline run has claimed it the recording is fixed.
	if sess.Status != internal_entity.SessionCreated && sess.Status != internal_entity.SessionUploaded {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "session is " + string(sess.Status) + ", audio can no longer be uploaded",
		})
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'audio' is required"})
		return
	}
	if file.Size > uploadSizeLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio upload exceeds the size limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded audio"})
		return
	}
	defer src.Close()
	audio, err := io.ReadAll(io.LimitReader(src, uploadSizeLimit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded audio"})
		return
	}
	if len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded audio is empty"})
		return
	}

	extension := utils.ExtensionFromFilename(file.Filename)
	if extension == "" {
		extension = "webm"
	}
	key := storage_files.AudioObjectKey(sess.UserId, sessionId, extension)
	contentType := storage_files.ContentTypeForExtension(extension)

	if err := sApi.storage.Store(c.Request.Context(), key, audio, contentType); err != nil {
		sApi.logger.Errorf("failed to store audio session=%s key=%s: %v", sessionId, key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store audio"})
		return
	}
	if err := sApi.store.MarkUploaded(c.Request.Context(), sessionId, key, contentType); err != nil {
		sApi.logger.Errorf("failed to mark session uploaded session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update session"})
		return
	}

	// The session stays UPLOADED if enqueueing fails, so a retried upload
	// can schedule it again.
	if err := sApi.scheduler.EnqueuePipelineRun(c.Request.Context(), sessionId); err != nil {
		sApi.logger.Errorf("failed to enqueue pipeline run session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audio stored but processing could not be scheduled"})
		return
	}

	sApi.logger.Infof("audio uploaded session=%s key=%s bytes=%d", sessionId, key, len(audio))
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionId,
		"status":    internal_entity.SessionUploaded,
	})
}

// Get returns the session with its transcript and insights once processing
// has produced them.
//
// @Router /v1/session/:sessionId [get]
func (sApi *sessionApi) Get(c *gin.Context) {
	sessionId := c.Param("sessionId")
	sess, err := sApi.store.GetWithFeedback(c.Request.Context(), sessionId)
	if err != nil {
		if errors.Is(err, internal_session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		sApi.logger.Errorf("failed to load session session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Delete removes a session, its feedback rows and any stored audio. Guarded
// by the service secret as it is an operator action, not a user one.
//
// @Router /v1/session/:sessionId [delete]
func (sApi *sessionApi) Delete(c *gin.Context) {
	if !sApi.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionId := c.Param("sessionId")
	sess, err := sApi.store.Get(c.Request.Context(), sessionId)
	if err != nil {
		if errors.Is(err, internal_session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		sApi.logger.Errorf("failed to load session session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load session"})
		return
	}

	// Purge audio that the pipeline has not already deleted. Losing this
	// race only means the object is gone, which is the goal anyway.
	if sess.HasAudio() && sess.AudioDeletedAt == nil {
		if err := sApi.storage.Delete(c.Request.Context(), sess.AudioKey); err != nil {
			sApi.logger.Warnf("failed to purge audio during delete session=%s key=%s: %v", sessionId, sess.AudioKey, err)
		}
	}

	if err := sApi.store.Delete(c.Request.Context(), sessionId); err != nil {
		sApi.logger.Errorf("failed to delete session session=%s: %v", sessionId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete session"})
		return
	}

	sApi.logger.Infof("session deleted session=%s user=%s", sessionId, sess.UserId)
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionId, "deleted": true})
}

func (sApi *sessionApi) authorized(c *gin.Context) bool {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" || sApi.cfg.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(sApi.cfg.Secret)) == 1
}
