// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
	"github.com/speakwise/pkg/utils"
)

// ErrSessionNotFound is returned when no session row exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// failed error messages are clamped so a giant upstream trace cannot bloat the row
const errorMessageLimit = 2000

// Store provides operations to save and mutate sessions in Postgres.
//
// Sessions are long-lived rows mutated through individually committed status
// updates, never a single multi-step transaction. The scheduler redelivers
// pipeline jobs at least once, so the UPLOADED→TRANSCRIBING transition is an
// atomic claim: only one delivery can win it, every other delivery observes a
// non-claimable status and backs off without touching the row.
type Store interface {
	// Save stores a session with a generated sessionId (UUID).
	// Returns the generated sessionId.
	Save(ctx context.Context, session *internal_entity.Session) (string, error)

	// Get retrieves a session by sessionId regardless of its current status.
	// Returns ErrSessionNotFound (wrapped) when the row does not exist.
	Get(ctx context.Context, sessionID string) (*internal_entity.Session, error)

	// GetWithFeedback retrieves a session with its transcript and insights
	// preloaded. Used by the read surface, not by the pipeline.
	GetWithFeedback(ctx context.Context, sessionID string) (*internal_entity.Session, error)

	// Claim atomically transitions a session from one status to another using
	// UPDATE ... WHERE status = from. Only one concurrent caller can win;
	// everyone else gets an error because the row already moved on.
	Claim(ctx context.Context, sessionID string, from, to internal_entity.SessionStatus) error

	// Transition sets the session status unconditionally. Used for the
	// forward writes the pipeline makes after it owns the session.
	Transition(ctx context.Context, sessionID string, to internal_entity.SessionStatus) error

	// UpdateFields applies a partial update in a single atomic UPDATE.
	// Column names must be allowlisted.
	UpdateFields(ctx context.Context, sessionID string, fields map[string]interface{}) error

	// MarkUploaded records the stored audio object and moves the session to
	// UPLOADED so a pipeline run can claim it.
	MarkUploaded(ctx context.Context, sessionID, audioKey, contentType string) error

	// MarkAudioDeleted stamps the audio purge time. Set exactly once, after
	// the transcript is durable and before analysis begins.
	MarkAudioDeleted(ctx context.Context, sessionID string, at time.Time) error

	// MarkFailed transitions a session to FAILED with the captured error
	// text. Terminal rows are left alone: a session that already reached
	// DONE or FAILED never regresses.
	MarkFailed(ctx context.Context, sessionID, message string) error

	// SaveTranscript stores the transcript row for a session.
	SaveTranscript(ctx context.Context, transcript *internal_entity.Transcript) error

	// SaveInsights stores the analysis output in one transaction: the insight
	// batch plus the session's focusNext recommendation.
	SaveInsights(ctx context.Context, sessionID string, insights []*internal_entity.Insight, focusNext string) error

	// Delete removes a session together with its transcript and insights.
	Delete(ctx context.Context, sessionID string) error
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates a new session store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

// Save stores a session in Postgres with a generated UUID as the sessionId.
func (s *postgresStore) Save(ctx context.Context, session *internal_entity.Session) (string, error) {
	if session.SessionId == "" {
		session.SessionId = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = internal_entity.SessionCreated
	}

	db := s.postgres.DB(ctx)
	if err := db.Create(session).Error; err != nil {
		return "", fmt.Errorf("failed to save session %s: %w", session.SessionId, err)
	}

	s.logger.Infof("saved session: sessionId=%s, user=%s, status=%s",
		session.SessionId, session.UserId, session.Status)

	return session.SessionId, nil
}

func (s *postgresStore) Get(ctx context.Context, sessionID string) (*internal_entity.Session, error) {
	db := s.postgres.DB(ctx)
	var session internal_entity.Session
	if err := db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	s.logger.Debugf("resolved session: sessionId=%s, user=%s, status=%s",
		session.SessionId, session.UserId, session.Status)

	return &session, nil
}

func (s *postgresStore) GetWithFeedback(ctx context.Context, sessionID string) (*internal_entity.Session, error) {
	db := s.postgres.DB(ctx)
	var session internal_entity.Session
	if err := db.
		Preload("Transcript").
		Preload("Insights").
		Where("session_id = ?", sessionID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Claim atomically transitions a session between two statuses using an
// UPDATE ... WHERE status = from. With at-least-once job delivery two runs can
// race for the same session; the conditional update guarantees a single winner.
func (s *postgresStore) Claim(ctx context.Context, sessionID string, from, to internal_entity.SessionStatus) error {
	db := s.postgres.DB(ctx)

	result := db.Model(&internal_entity.Session{}).
		Where("session_id = ? AND status = ?", sessionID, from).
		Updates(map[string]interface{}{
			"status":       to,
			"updated_date": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to claim session %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s is not in status %s", sessionID, from)
	}

	s.logger.Debugf("claimed session: sessionId=%s, %s -> %s", sessionID, from, to)
	return nil
}

func (s *postgresStore) Transition(ctx context.Context, sessionID string, to internal_entity.SessionStatus) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&internal_entity.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       to,
			"updated_date": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to transition session %s to %s: %w", sessionID, to, result.Error)
	}

	s.logger.Debugf("transitioned session: sessionId=%s, status=%s", sessionID, to)
	return nil
}

// UpdateFields applies a partial update as a single UPDATE statement.
func (s *postgresStore) UpdateFields(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	// Allowlist of updatable columns to prevent SQL injection
	allowed := map[string]bool{
		"status":             true,
		"audio_key":          true,
		"audio_content_type": true,
		"audio_deleted_at":   true,
		"error_message":      true,
		"focus_next":         true,
	}
	for column := range fields {
		if !allowed[column] {
			return fmt.Errorf("column %q is not updatable on session", column)
		}
	}

	updates := make(map[string]interface{}, len(fields)+1)
	for column, value := range fields {
		updates[column] = value
	}
	updates["updated_date"] = time.Now()

	db := s.postgres.DB(ctx)
	result := db.Model(&internal_entity.Session{}).
		Where("session_id = ?", sessionID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update session %s: %w", sessionID, result.Error)
	}

	s.logger.Debugf("updated session fields: sessionId=%s, columns=%d", sessionID, len(fields))
	return nil
}

func (s *postgresStore) MarkUploaded(ctx context.Context, sessionID, audioKey, contentType string) error {
	return s.UpdateFields(ctx, sessionID, map[string]interface{}{
		"status":             internal_entity.SessionUploaded,
		"audio_key":          audioKey,
		"audio_content_type": contentType,
	})
}

func (s *postgresStore) MarkAudioDeleted(ctx context.Context, sessionID string, at time.Time) error {
	return s.UpdateFields(ctx, sessionID, map[string]interface{}{
		"audio_deleted_at": at,
	})
}

// MarkFailed records the terminal failure. The WHERE clause skips rows already
// in a terminal status so a late failure can never regress DONE.
func (s *postgresStore) MarkFailed(ctx context.Context, sessionID, message string) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&internal_entity.Session{}).
		Where("session_id = ? AND status NOT IN ?", sessionID,
			[]internal_entity.SessionStatus{internal_entity.SessionDone, internal_entity.SessionFailed}).
		Updates(map[string]interface{}{
			"status":        internal_entity.SessionFailed,
			"error_message": utils.Truncate(message, errorMessageLimit),
			"updated_date":  time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark session %s failed: %w", sessionID, result.Error)
	}

	s.logger.Warnf("marked session failed: sessionId=%s, reason=%s", sessionID, utils.Truncate(message, 200))
	return nil
}

func (s *postgresStore) SaveTranscript(ctx context.Context, transcript *internal_entity.Transcript) error {
	db := s.postgres.DB(ctx)
	if err := db.Create(transcript).Error; err != nil {
		return fmt.Errorf("failed to save transcript for session %s: %w", transcript.SessionId, err)
	}

	s.logger.Infof("saved transcript: sessionId=%s, words=%d", transcript.SessionId, transcript.WordCount)
	return nil
}

// SaveInsights persists the insight batch and the focusNext recommendation in
// one transaction. Aggregation reads these rows afterwards, so nothing may be
// visible until all of it is.
func (s *postgresStore) SaveInsights(ctx context.Context, sessionID string, insights []*internal_entity.Insight, focusNext string) error {
	db := s.postgres.DB(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(insights) > 0 {
			if err := tx.Create(insights).Error; err != nil {
				return err
			}
		}
		return tx.Model(&internal_entity.Session{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]interface{}{
				"focus_next":   focusNext,
				"updated_date": time.Now(),
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save insights for session %s: %w", sessionID, err)
	}

	s.logger.Infof("saved insights: sessionId=%s, count=%d", sessionID, len(insights))
	return nil
}

// Delete removes the session and its owned rows. Children are removed
// explicitly rather than trusting cascade configuration on every backend.
func (s *postgresStore) Delete(ctx context.Context, sessionID string) error {
	db := s.postgres.DB(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&internal_entity.Insight{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&internal_entity.Transcript{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&internal_entity.Session{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	s.logger.Debugf("deleted session: sessionId=%s", sessionID)
	return nil
}
