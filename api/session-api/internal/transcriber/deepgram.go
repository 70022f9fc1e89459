// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

const deepgramDefaultModel = "nova-2"

type deepgramSpeechToText struct {
	cfg    configs.TranscriberConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  *api.Client
}

// NewDeepgramSpeechToText creates a Deepgram prerecorded transcriber. The
// underlying REST client is built lazily on the first Transcribe call.
func NewDeepgramSpeechToText(cfg configs.TranscriberConfig, logger commons.Logger) SpeechToText {
	return &deepgramSpeechToText{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements SpeechToText.
func (d *deepgramSpeechToText) Name() string {
	return "deepgram-speech-to-text"
}

func (d *deepgramSpeechToText) init() error {
	d.once.Do(func() {
		if strings.TrimSpace(d.cfg.ApiKey) == "" {
			d.initErr = fmt.Errorf("deepgram-stt: api key is not configured")
			return
		}
		c := listen.NewREST(d.cfg.ApiKey, &interfaces.ClientOptions{})
		d.client = api.New(c)
		d.logger.Debugf("deepgram-stt: client initialized")
	})
	return d.initErr
}

func (d *deepgramSpeechToText) Transcribe(ctx context.Context, audio []byte, filenameHint string) (*Result, error) {
	if err := d.init(); err != nil {
		return nil, err
	}

	model := d.cfg.Model
	if model == "" {
		model = deepgramDefaultModel
	}
	language := d.cfg.Language
	if language == "" {
		language = "en"
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       model,
		Language:    language,
		SmartFormat: true,
		Punctuate:   true,
		FillerWords: true,
	}

	d.logger.Debugf("deepgram-stt: transcribing %d bytes, hint=%s, model=%s", len(audio), filenameHint, model)

	res, err := d.client.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return nil, fmt.Errorf("deepgram-stt: transcription request failed: %w", err)
	}
	if len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("deepgram-stt: response carried no transcription alternatives")
	}

	alternative := res.Results.Channels[0].Alternatives[0]
	d.logger.Infof("deepgram-stt: transcribed %d bytes, confidence=%.3f", len(audio), alternative.Confidence)

	return &Result{
		Text:       alternative.Transcript,
		Confidence: alternative.Confidence,
	}, nil
}
