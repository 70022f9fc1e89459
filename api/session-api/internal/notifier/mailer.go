// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

// MailSender delivers one email. Kept narrow so notification logic can be
// tested without a real provider.
type MailSender interface {
	Send(ctx context.Context, toEmail, subject, plain, html string) error
}

// Mail provider names accepted in MailerConfig.Provider.
const (
	MailProviderSendgrid = "sendgrid"
	MailProviderSes      = "ses"
)

// NewMailer selects the configured mail provider. Returns nil when mail is
// not configured; a sendgrid api key alone still selects sendgrid.
func NewMailer(cfg configs.MailerConfig, logger commons.Logger) MailSender {
	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case MailProviderSendgrid:
		return NewSendgridMailer(cfg, logger)
	case MailProviderSes:
		return NewSesMailer(cfg, logger)
	case "":
		if cfg.SendgridApiKey != "" {
			return NewSendgridMailer(cfg, logger)
		}
	}
	return nil
}

type sendgridMailer struct {
	cfg    configs.MailerConfig
	logger commons.Logger

	once   sync.Once
	client *sendgrid.Client
}

// NewSendgridMailer creates a SendGrid-backed sender. The client is built
// lazily on first send.
func NewSendgridMailer(cfg configs.MailerConfig, logger commons.Logger) MailSender {
	return &sendgridMailer{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *sendgridMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	m.once.Do(func() {
		m.client = sendgrid.NewSendClient(m.cfg.SendgridApiKey)
	})

	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send returned status %d", resp.StatusCode)
	}

	m.logger.Debugf("sendgrid: delivered mail to %s, status=%d", toEmail, resp.StatusCode)
	return nil
}
