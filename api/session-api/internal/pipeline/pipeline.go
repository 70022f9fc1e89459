// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	internal_analyzer "github.com/speakwise/api/session-api/internal/analyzer"
	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	internal_notifier "github.com/speakwise/api/session-api/internal/notifier"
	internal_profile "github.com/speakwise/api/session-api/internal/profile"
	internal_session "github.com/speakwise/api/session-api/internal/session"
	internal_transcriber "github.com/speakwise/api/session-api/internal/transcriber"
	"github.com/speakwise/pkg/commons"
	storage_files "github.com/speakwise/pkg/storages/file-storage"
	"github.com/speakwise/pkg/utils"
)

// Orchestrator drives one session through the processing state machine:
//
//	UPLOADED → TRANSCRIBING → ANALYZING → DONE
//	any non-terminal → FAILED
//
// A run is a single sequential unit of work. Every status write is committed
// individually, so a crash leaves the session at its last persisted status
// for the scheduler's redelivery to find. Nothing here retries: retry is the
// scheduler's job, and the claim on the UPLOADED→TRANSCRIBING edge makes a
// redelivered job for an already-advanced session a rejected no-op.
type Orchestrator interface {
	// Run processes one session end to end. A nil return means the session
	// reached DONE; any other outcome is a *PipelineError whose code maps
	// onto the delivery response.
	Run(ctx context.Context, sessionID string) error
}

type orchestrator struct {
	store       internal_session.Store
	profiles    internal_profile.Aggregator
	storage     storage_files.Storage
	transcriber internal_transcriber.SpeechToText
	analyzer    internal_analyzer.PatternAnalyzer
	notifier    internal_notifier.Notifier
	logger      commons.Logger
}

// NewOrchestrator wires the pipeline. notifier may be nil when no terminal
// notifications are configured.
func NewOrchestrator(
	store internal_session.Store,
	profiles internal_profile.Aggregator,
	storage storage_files.Storage,
	transcriber internal_transcriber.SpeechToText,
	analyzer internal_analyzer.PatternAnalyzer,
	notifier internal_notifier.Notifier,
	logger commons.Logger,
) Orchestrator {
	return &orchestrator{
		store:       store,
		profiles:    profiles,
		storage:     storage,
		transcriber: transcriber,
		analyzer:    analyzer,
		notifier:    notifier,
		logger:      logger,
	}
}

func (o *orchestrator) Run(ctx context.Context, sessionID string) error {
	start := time.Now()
	defer func() {
		o.logger.Benchmark("pipeline.Run", time.Since(start))
	}()
	o.logger.Tracef(ctx, "pipeline: run started, sessionId=%s", sessionID)

	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, internal_session.ErrSessionNotFound) {
			return NewError(CodeNotFound, StepLoad, err)
		}
		return o.fail(ctx, sessionID, StepLoad, CodeInternal, err)
	}

	// Idempotency boundary: only an UPLOADED session may be processed. A
	// redelivered or concurrent job sees any other status and is rejected
	// here without side effects.
	if !sess.IsProcessable() {
		return NewError(CodeInvalidState, StepGuard,
			fmt.Errorf("session %s is %s, expected %s", sessionID, sess.Status, internal_entity.SessionUploaded))
	}

	if !sess.HasAudio() {
		return o.fail(ctx, sessionID, StepFetchAudio, CodeInternal,
			fmt.Errorf("session %s has no recorded audio", sessionID))
	}
	audio, err := o.storage.Retrieve(ctx, sess.AudioKey)
	if err != nil {
		return o.fail(ctx, sessionID, StepFetchAudio, CodeUpstream, err)
	}

	// The status write doubles as the claim: only one delivery wins the
	// UPLOADED→TRANSCRIBING edge, the loser backs off without mutating.
	if err := o.store.Claim(ctx, sessionID,
		internal_entity.SessionUploaded, internal_entity.SessionTranscribing); err != nil {
		return NewError(CodeInvalidState, StepGuard, err)
	}

	result, err := o.transcriber.Transcribe(ctx, audio, path.Base(sess.AudioKey))
	if err != nil {
		return o.fail(ctx, sessionID, StepTranscribe, CodeUpstream, err)
	}

	transcript := &internal_entity.Transcript{
		SessionId: sess.SessionId,
		Text:      result.Text,
		WordCount: utils.WordCount(result.Text),
	}
	if err := o.store.SaveTranscript(ctx, transcript); err != nil {
		return o.fail(ctx, sessionID, StepPersist, CodeInternal, err)
	}

	// Raw audio must not outlive transcription. The purge itself is best
	// effort, the stamp is not: audioDeletedAt is durable before analysis
	// begins.
	if err := o.storage.Delete(ctx, sess.AudioKey); err != nil {
		o.logger.Warnf("pipeline: audio purge failed, sessionId=%s: %v", sessionID, err)
	}
	if err := o.store.MarkAudioDeleted(ctx, sessionID, time.Now()); err != nil {
		return o.fail(ctx, sessionID, StepPersist, CodeInternal, err)
	}

	if err := o.store.Transition(ctx, sessionID, internal_entity.SessionAnalyzing); err != nil {
		return o.fail(ctx, sessionID, StepPersist, CodeInternal, err)
	}

	analysis, err := o.analyzer.Analyze(ctx, result.Text)
	if err != nil {
		return o.fail(ctx, sessionID, StepAnalyze, CodeUpstream, err)
	}

	insights := toInsightEntities(sess.SessionId, analysis)
	if err := o.store.SaveInsights(ctx, sessionID, insights, analysis.FocusNext); err != nil {
		return o.fail(ctx, sessionID, StepPersist, CodeInternal, err)
	}

	// Aggregation failing after insights are durable still fails the run;
	// the persisted insights are an accepted inconsistency window.
	if err := o.profiles.Aggregate(ctx, sess.UserId, insights); err != nil {
		return o.fail(ctx, sessionID, StepAggregate, CodeInternal, err)
	}

	if err := o.store.Transition(ctx, sessionID, internal_entity.SessionDone); err != nil {
		return o.fail(ctx, sessionID, StepFinalize, CodeInternal, err)
	}

	o.logger.Infof("pipeline: completed session, sessionId=%s, words=%d, insights=%d",
		sessionID, transcript.WordCount, len(insights))
	o.notifyTerminal(ctx, sessionID)

	return nil
}

// fail transitions the session to FAILED with the captured cause and returns
// the classified error for the delivery response.
func (o *orchestrator) fail(ctx context.Context, sessionID string, step Step, code ErrorCode, cause error) error {
	o.logger.Errorf("pipeline: sessionId=%s failed at step=%s: %v", sessionID, step, cause)

	if err := o.store.MarkFailed(ctx, sessionID, cause.Error()); err != nil {
		o.logger.Errorf("pipeline: could not mark session %s failed: %v", sessionID, err)
	}
	o.notifyTerminal(ctx, sessionID)

	return NewError(code, step, cause)
}

// notifyTerminal announces the session's terminal state. Best effort only:
// the terminal status is already committed.
func (o *orchestrator) notifyTerminal(ctx context.Context, sessionID string) {
	if o.notifier == nil {
		return
	}
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		o.logger.Warnf("pipeline: skipping notification, could not reload session %s: %v", sessionID, err)
		return
	}
	if !sess.Status.IsTerminal() {
		return
	}
	if err := o.notifier.NotifyTerminal(ctx, sess); err != nil {
		o.logger.Warnf("pipeline: notification failed, sessionId=%s: %v", sessionID, err)
	}
}

func toInsightEntities(sessionID string, analysis *internal_analyzer.Analysis) []*internal_entity.Insight {
	insights := make([]*internal_entity.Insight, 0, len(analysis.Insights))
	for _, in := range analysis.Insights {
		insights = append(insights, &internal_entity.Insight{
			SessionId:  sessionID,
			Category:   internal_entity.InsightCategory(in.Category),
			Pattern:    in.Pattern,
			Detail:     in.Detail,
			Frequency:  in.Frequency,
			Severity:   internal_entity.InsightSeverity(in.Severity),
			Examples:   in.Examples,
			Suggestion: in.Suggestion,
		})
	}
	return insights
}
