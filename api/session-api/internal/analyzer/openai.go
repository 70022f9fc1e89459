// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

type openaiAnalyzer struct {
	cfg    configs.AnalyzerConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  openai.Client
}

// NewOpenAIAnalyzer creates an OpenAI-backed pattern analyzer. The underlying
// client is built lazily on the first Analyze call.
func NewOpenAIAnalyzer(cfg configs.AnalyzerConfig, logger commons.Logger) PatternAnalyzer {
	return &openaiAnalyzer{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements PatternAnalyzer.
func (o *openaiAnalyzer) Name() string {
	return "openai-pattern-analyzer"
}

func (o *openaiAnalyzer) init() error {
	o.once.Do(func() {
		if strings.TrimSpace(o.cfg.ApiKey) == "" {
			o.initErr = fmt.Errorf("openai-analyzer: api key is not configured")
			return
		}
		o.client = openai.NewClient(option.WithAPIKey(o.cfg.ApiKey))
		o.logger.Debugf("openai-analyzer: client initialized")
	})
	return o.initErr
}

func (o *openaiAnalyzer) Analyze(ctx context.Context, transcript string) (*Analysis, error) {
	if err := o.init(); err != nil {
		return nil, err
	}

	system, user, err := buildPrompts(o.logger, transcript, o.cfg.TokenBudget)
	if err != nil {
		return nil, err
	}

	model := openai.ChatModelGPT4oMini
	if o.cfg.Model != "" {
		model = openai.ChatModel(o.cfg.Model)
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai-analyzer: analysis request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai-analyzer: response carried no choices")
	}

	analysis, err := parseAnalysis(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("openai-analyzer: %w", err)
	}

	o.logger.Infof("openai-analyzer: analyzed transcript, insights=%d", len(analysis.Insights))
	return analysis, nil
}
