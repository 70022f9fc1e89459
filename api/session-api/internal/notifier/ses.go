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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	ses_types "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

type sesMailer struct {
	cfg    configs.MailerConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  *ses.Client
}

// NewSesMailer creates an Amazon SES backed sender. The client is built
// lazily on first send; without explicit keys it uses the default AWS
// credential chain.
func NewSesMailer(cfg configs.MailerConfig, logger commons.Logger) MailSender {
	return &sesMailer{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *sesMailer) init(ctx context.Context) error {
	m.once.Do(func() {
		if m.cfg.Region == "" {
			m.initErr = fmt.Errorf("ses: region is not configured")
			return
		}
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(m.cfg.Region),
		}
		if m.cfg.AccessKey != "" && m.cfg.SecretKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(m.cfg.AccessKey, m.cfg.SecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			m.initErr = fmt.Errorf("ses: loading aws config: %w", err)
			return
		}
		m.client = ses.NewFromConfig(awsCfg)
	})
	return m.initErr
}

func (m *sesMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	if err := m.init(ctx); err != nil {
		return err
	}

	source := m.cfg.FromEmail
	if m.cfg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	}

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &ses_types.Destination{ToAddresses: []string{toEmail}},
		Message: &ses_types.Message{
			Subject: &ses_types.Content{Data: aws.String(subject)},
			Body: &ses_types.Body{
				Text: &ses_types.Content{Data: aws.String(plain)},
				Html: &ses_types.Content{Data: aws.String(html)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	m.logger.Debugf("ses: delivered mail to %s", toEmail)
	return nil
}
