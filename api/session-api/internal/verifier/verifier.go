// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_verifier

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	scheduler_client "github.com/speakwise/pkg/clients/scheduler"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"github.com/speakwise/pkg/utils"
)

// ErrInvalidSignature is the only rejection the verifier produces. A missing
// header, an expired token, a wrong key and a tampered body are all reported
// identically so callers cannot learn which check failed.
var ErrInvalidSignature = errors.New("invalid request signature")

// Verifier authenticates inbound pipeline-job deliveries.
//
// The scheduler signs every delivery with a compact JWS whose body claim is a
// digest of the raw request body. Two signing keys are active at any time,
// "current" and "next", so keys rotate with zero downtime: deliveries signed
// with either key verify until the old key is retired.
type Verifier interface {
	// Verify checks the signature header against the raw request body.
	// Returns nil when the delivery is authentic, ErrInvalidSignature
	// otherwise.
	Verify(signature string, body []byte) error
}

type jwsVerifier struct {
	cfg    configs.SchedulerConfig
	logger commons.Logger
}

// New creates a verifier holding the rotating signing keys.
func New(cfg configs.SchedulerConfig, logger commons.Logger) Verifier {
	return &jwsVerifier{
		cfg:    cfg,
		logger: logger,
	}
}

func (v *jwsVerifier) Verify(signature string, body []byte) error {
	if utils.IsEmpty(signature) {
		v.logger.Warnf("rejected delivery without signature header")
		return ErrInvalidSignature
	}

	keys := []string{v.cfg.CurrentSigningKey, v.cfg.NextSigningKey}
	for _, key := range keys {
		if utils.IsEmpty(key) {
			continue
		}
		if err := v.verifyWithKey(signature, body, []byte(key)); err == nil {
			return nil
		}
	}

	v.logger.Warnf("rejected delivery with unverifiable signature")
	return ErrInvalidSignature
}

func (v *jwsVerifier) verifyWithKey(signature string, body []byte, key []byte) error {
	token, err := jwt.Parse(signature,
		func(t *jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(scheduler_client.SignatureIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidSignature
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidSignature
	}

	digest, _ := claims[scheduler_client.BodyDigestClaim].(string)
	expected := scheduler_client.BodyDigest(body)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(expected)) != 1 {
		return fmt.Errorf("body digest mismatch: %w", ErrInvalidSignature)
	}

	return nil
}
