// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"github.com/speakwise/pkg/utils"
)

// Notifier announces terminal session states to the outside world: a webhook
// callback for the web app and a failure-alert mail for operators.
//
// Notification is best effort. The pipeline has already committed the
// terminal status by the time a notifier runs, so delivery failures are
// surfaced to the caller for logging but must never change the session.
type Notifier interface {
	// NotifyTerminal fans out notifications for a session that just reached
	// DONE or FAILED. All targets are attempted; the returned error is the
	// first delivery failure, if any.
	NotifyTerminal(ctx context.Context, session *internal_entity.Session) error
}

// terminalEvent is the webhook payload posted to the web application.
type terminalEvent struct {
	SessionId    string `json:"sessionId"`
	UserId       string `json:"userId"`
	Status       string `json:"status"`
	FocusNext    string `json:"focusNext,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type restNotifier struct {
	webhookHost string
	mailer      MailSender
	opsEmail    string
	logger      commons.Logger

	once sync.Once
	rest *resty.Client
}

// NewNotifier wires the webhook target and optional failure mail. Empty
// configuration disables the corresponding channel.
func NewNotifier(webhookHost string, mailerCfg configs.MailerConfig, logger commons.Logger) Notifier {
	mailer := NewMailer(mailerCfg, logger)
	if mailer == nil && !utils.IsEmpty(mailerCfg.Provider) {
		logger.Warnf("notifier: unknown mail provider %q, failure mail disabled", mailerCfg.Provider)
	}
	return &restNotifier{
		webhookHost: webhookHost,
		mailer:      mailer,
		opsEmail:    mailerCfg.OpsEmail,
		logger:      logger,
	}
}

func (n *restNotifier) client() *resty.Client {
	n.once.Do(func() {
		n.rest = resty.New().SetTimeout(15 * time.Second)
	})
	return n.rest
}

func (n *restNotifier) NotifyTerminal(ctx context.Context, session *internal_entity.Session) error {
	group, groupCtx := errgroup.WithContext(ctx)

	if !utils.IsEmpty(n.webhookHost) {
		group.Go(func() error {
			return n.deliverWebhook(groupCtx, session)
		})
	}
	if n.mailer != nil && !utils.IsEmpty(n.opsEmail) && session.Status == internal_entity.SessionFailed {
		group.Go(func() error {
			return n.deliverFailureMail(groupCtx, session)
		})
	}

	return group.Wait()
}

func (n *restNotifier) deliverWebhook(ctx context.Context, session *internal_entity.Session) error {
	event := terminalEvent{
		SessionId:    session.SessionId,
		UserId:       session.UserId,
		Status:       string(session.Status),
		FocusNext:    session.FocusNext,
		ErrorMessage: session.ErrorMessage,
	}

	resp, err := n.client().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.webhookHost)
	if err != nil {
		return fmt.Errorf("notifier: webhook delivery failed for session %s: %w", session.SessionId, err)
	}
	if resp.IsError() {
		return fmt.Errorf("notifier: webhook delivery for session %s returned %s", session.SessionId, resp.Status())
	}

	n.logger.Debugf("notifier: delivered webhook, sessionId=%s, status=%s", session.SessionId, session.Status)
	return nil
}

func (n *restNotifier) deliverFailureMail(ctx context.Context, session *internal_entity.Session) error {
	subject := fmt.Sprintf("Pipeline failure for session %s", session.SessionId)
	plain := fmt.Sprintf("Session %s (user %s) failed processing.\n\nReason: %s\n",
		session.SessionId, session.UserId, session.ErrorMessage)
	html := fmt.Sprintf("<p>Session <b>%s</b> (user %s) failed processing.</p><p>Reason: %s</p>",
		session.SessionId, session.UserId, session.ErrorMessage)

	if err := n.mailer.Send(ctx, n.opsEmail, subject, plain, html); err != nil {
		return fmt.Errorf("notifier: failure mail for session %s: %w", session.SessionId, err)
	}

	n.logger.Debugf("notifier: delivered failure mail, sessionId=%s", session.SessionId)
	return nil
}
