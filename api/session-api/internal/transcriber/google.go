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
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
	"github.com/speakwise/pkg/utils"
)

type googleSpeechToText struct {
	cfg    configs.TranscriberConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  *speech.Client
}

// NewGoogleSpeechToText creates a Google Cloud Speech transcriber. The
// underlying client is built lazily on the first Transcribe call.
func NewGoogleSpeechToText(cfg configs.TranscriberConfig, logger commons.Logger) SpeechToText {
	return &googleSpeechToText{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements SpeechToText.
func (g *googleSpeechToText) Name() string {
	return "google-speech-to-text"
}

func (g *googleSpeechToText) init(ctx context.Context) error {
	g.once.Do(func() {
		clientOptions := make([]option.ClientOption, 0, 3)
		if !utils.IsEmpty(g.cfg.ApiKey) {
			clientOptions = append(clientOptions, option.WithAPIKey(g.cfg.ApiKey))
		}
		if !utils.IsEmpty(g.cfg.ServiceAccountKey) {
			clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(g.cfg.ServiceAccountKey)))
		}
		if !utils.IsEmpty(g.cfg.ProjectId) {
			clientOptions = append(clientOptions, option.WithQuotaProject(g.cfg.ProjectId))
		}
		if len(clientOptions) == 0 {
			g.initErr = fmt.Errorf("google-stt: neither api key nor service account key is configured")
			return
		}

		client, err := speech.NewClient(ctx, clientOptions...)
		if err != nil {
			g.initErr = fmt.Errorf("google-stt: failed to create speech client: %w", err)
			return
		}
		g.client = client
		g.logger.Debugf("google-stt: client initialized")
	})
	return g.initErr
}

// encodingFor maps an upload container to the recognizer encoding. Sample
// rate is only forced for opus containers; self-describing formats carry
// their own.
func encodingFor(filenameHint string) (speechpb.RecognitionConfig_AudioEncoding, int32) {
	switch utils.ExtensionFromFilename(filenameHint) {
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000
	case "ogg", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS, 48000
	case "mp3":
		return speechpb.RecognitionConfig_MP3, 0
	case "flac":
		return speechpb.RecognitionConfig_FLAC, 0
	case "wav":
		return speechpb.RecognitionConfig_LINEAR16, 0
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0
	}
}

func (g *googleSpeechToText) Transcribe(ctx context.Context, audio []byte, filenameHint string) (*Result, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}

	language := g.cfg.Language
	if language == "" {
		language = "en-US"
	}
	encoding, sampleRate := encodingFor(filenameHint)

	config := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}
	if sampleRate > 0 {
		config.SampleRateHertz = sampleRate
	}
	if g.cfg.Model != "" {
		config.Model = g.cfg.Model
	}

	g.logger.Debugf("google-stt: transcribing %d bytes, hint=%s, encoding=%s", len(audio), filenameHint, encoding)

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google-stt: transcription request failed: %w", err)
	}

	var (
		parts       []string
		confidences []float64
	)
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		best := result.Alternatives[0]
		parts = append(parts, best.Transcript)
		confidences = append(confidences, float64(best.Confidence))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("google-stt: response carried no transcription alternatives")
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	confidence := utils.AverageFloat64(confidences)
	g.logger.Infof("google-stt: transcribed %d bytes, segments=%d, confidence=%.3f", len(audio), len(parts), confidence)

	return &Result{
		Text:       text,
		Confidence: confidence,
	}, nil
}
