// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package scheduler_client

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"github.com/speakwise/pkg/utils"
)

// Delivery signature wire format, shared with the inbound verifier. A
// delivery is authenticated by an HS256 JWS in the signature header whose
// claims bind the destination, a validity window and a digest of the exact
// raw body the queue replays.
const (
	SignatureIssuer  = "speakwise-scheduler"
	BodyDigestClaim  = "body"
	signatureTtl     = 6 * time.Hour
	publishRoutePath = "/v1/publish"
)

// PipelineRunPath is the destination route deliveries are addressed to.
const PipelineRunPath = "/v1/session/pipeline/run"

// BodyDigest returns the base64url SHA-256 digest of a delivery body, the
// value carried in the BodyDigestClaim.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Sign builds the delivery signature for body, bound to destination and
// valid from now for the redelivery horizon.
func Sign(body []byte, signingKey, destination string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":           SignatureIssuer,
		"sub":           destination,
		"iat":           now.Unix(),
		"nbf":           now.Unix(),
		"exp":           now.Add(signatureTtl).Unix(),
		BodyDigestClaim: BodyDigest(body),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// SchedulerClient publishes pipeline-run jobs to the delivery queue, which
// re-delivers them at-least-once; duplicate deliveries are absorbed by the
// pipeline's status guard.
type SchedulerClient interface {
	EnqueuePipelineRun(ctx context.Context, sessionId string) error
}

type publishRequest struct {
	Destination string            `json:"destination"`
	Body        json.RawMessage   `json:"body"`
	Headers     map[string]string `json:"headers"`
}

type restSchedulerClient struct {
	cfg    configs.SchedulerConfig
	logger commons.Logger

	once sync.Once
	http *resty.Client
}

func NewSchedulerClient(cfg configs.SchedulerConfig, logger commons.Logger) SchedulerClient {
	return &restSchedulerClient{cfg: cfg, logger: logger}
}

func (c *restSchedulerClient) client() *resty.Client {
	c.once.Do(func() {
		c.http = resty.New().SetTimeout(60 * time.Second)
	})
	return c.http
}

// EnqueuePipelineRun signs and publishes one run request for sessionId.
// Without a queue URL configured it posts straight to the destination, which
// runs the pipeline inline; that mode is for local development only.
func (c *restSchedulerClient) EnqueuePipelineRun(ctx context.Context, sessionId string) error {
	body, err := json.Marshal(map[string]string{"sessionId": sessionId})
	if err != nil {
		return err
	}

	destination := c.cfg.Destination + PipelineRunPath
	signature, err := Sign(body, c.cfg.CurrentSigningKey, destination, time.Now())
	if err != nil {
		return fmt.Errorf("signing pipeline delivery: %w", err)
	}

	if c.cfg.Url == "" {
		return c.deliverDirect(ctx, destination, body, signature)
	}

	resp, err := c.client().R().
		SetContext(ctx).
		SetAuthToken(c.cfg.Token).
		SetBody(publishRequest{
			Destination: destination,
			Body:        body,
			Headers: map[string]string{
				utils.HEADER_SIGNATURE_KEY: signature,
			},
		}).
		Post(c.cfg.Url + publishRoutePath)
	if err != nil {
		return fmt.Errorf("publishing pipeline run for session %s: %w", sessionId, err)
	}
	if resp.IsError() {
		return fmt.Errorf("publishing pipeline run for session %s: queue responded %d", sessionId, resp.StatusCode())
	}
	c.logger.Debugf("pipeline run enqueued session=%s", sessionId)
	return nil
}

func (c *restSchedulerClient) deliverDirect(ctx context.Context, destination string, body []byte, signature string) error {
	c.logger.Warnf("scheduler queue not configured, delivering inline to %s", destination)
	resp, err := c.client().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(utils.HEADER_SIGNATURE_KEY, signature).
		SetBody(body).
		Post(destination)
	if err != nil {
		return fmt.Errorf("inline pipeline delivery: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("inline pipeline delivery: destination responded %d", resp.StatusCode())
	}
	return nil
}
