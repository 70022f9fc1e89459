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

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

const anthropicMaxOutputTokens = 2048

type anthropicAnalyzer struct {
	cfg    configs.AnalyzerConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  anthropic.Client
}

// NewAnthropicAnalyzer creates an Anthropic-backed pattern analyzer. The
// underlying client is built lazily on the first Analyze call.
func NewAnthropicAnalyzer(cfg configs.AnalyzerConfig, logger commons.Logger) PatternAnalyzer {
	return &anthropicAnalyzer{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements PatternAnalyzer.
func (a *anthropicAnalyzer) Name() string {
	return "anthropic-pattern-analyzer"
}

func (a *anthropicAnalyzer) init() error {
	a.once.Do(func() {
		if strings.TrimSpace(a.cfg.ApiKey) == "" {
			a.initErr = fmt.Errorf("anthropic-analyzer: api key is not configured")
			return
		}
		a.client = anthropic.NewClient(option.WithAPIKey(a.cfg.ApiKey))
		a.logger.Debugf("anthropic-analyzer: client initialized")
	})
	return a.initErr
}

func (a *anthropicAnalyzer) Analyze(ctx context.Context, transcript string) (*Analysis, error) {
	if err := a.init(); err != nil {
		return nil, err
	}

	system, user, err := buildPrompts(a.logger, transcript, a.cfg.TokenBudget)
	if err != nil {
		return nil, err
	}

	model := anthropic.ModelClaudeSonnet4_20250514
	if a.cfg.Model != "" {
		model = anthropic.Model(a.cfg.Model)
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: anthropicMaxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic-analyzer: analysis request failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return nil, fmt.Errorf("anthropic-analyzer: response carried no text content")
	}

	analysis, err := parseAnalysis(reply.String())
	if err != nil {
		return nil, fmt.Errorf("anthropic-analyzer: %w", err)
	}

	a.logger.Infof("anthropic-analyzer: analyzed transcript, insights=%d", len(analysis.Insights))
	return analysis, nil
}
