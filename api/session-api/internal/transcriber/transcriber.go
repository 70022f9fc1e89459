// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_transcriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

// =============================================================================
// Speech To Text Interface
// =============================================================================

// Result is the outcome of transcribing one audio recording.
type Result struct {
	Text       string
	Confidence float64
}

// SpeechToText converts a recorded audio blob into text.
//
// Implementations are lazy singletons: they hold configuration and build the
// vendor client on first use, so missing credentials surface as an error from
// the first Transcribe call rather than at process startup.
type SpeechToText interface {
	// Name identifies the provider implementation.
	Name() string

	// Transcribe submits a complete recording and blocks until the provider
	// returns the transcript. filenameHint carries the original upload name
	// so the provider can infer the audio container.
	Transcribe(ctx context.Context, audio []byte, filenameHint string) (*Result, error)
}

// =============================================================================
// Provider Factory
// =============================================================================

const (
	ProviderDeepgram = "deepgram"
	ProviderGoogle   = "google"
)

// New builds the configured speech-to-text provider.
func New(cfg configs.TranscriberConfig, logger commons.Logger) (SpeechToText, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case ProviderDeepgram:
		return NewDeepgramSpeechToText(cfg, logger), nil
	case ProviderGoogle:
		return NewGoogleSpeechToText(cfg, logger), nil
	default:
		return nil, fmt.Errorf("transcriber: unknown provider %q", cfg.Provider)
	}
}
