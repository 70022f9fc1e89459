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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrock_types "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

const (
	bedrockDefaultModel    = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	bedrockMaxOutputTokens = 2048
	bedrockTemperature     = 0.2
)

type bedrockAnalyzer struct {
	cfg    configs.AnalyzerConfig
	logger commons.Logger

	once    sync.Once
	initErr error
	client  *bedrockruntime.Client
}

// NewBedrockAnalyzer creates an Amazon Bedrock backed pattern analyzer using
// the Converse API. The client is built lazily on the first Analyze call;
// without explicit keys it uses the default AWS credential chain.
func NewBedrockAnalyzer(cfg configs.AnalyzerConfig, logger commons.Logger) PatternAnalyzer {
	return &bedrockAnalyzer{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements PatternAnalyzer.
func (a *bedrockAnalyzer) Name() string {
	return "bedrock-pattern-analyzer"
}

func (a *bedrockAnalyzer) init(ctx context.Context) error {
	a.once.Do(func() {
		if strings.TrimSpace(a.cfg.Region) == "" {
			a.initErr = fmt.Errorf("bedrock-analyzer: region is not configured")
			return
		}
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(a.cfg.Region),
		}
		if a.cfg.AccessKey != "" && a.cfg.SecretKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(a.cfg.AccessKey, a.cfg.SecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			a.initErr = fmt.Errorf("bedrock-analyzer: loading aws config: %w", err)
			return
		}
		a.client = bedrockruntime.NewFromConfig(awsCfg)
		a.logger.Debugf("bedrock-analyzer: client initialized, region=%s", a.cfg.Region)
	})
	return a.initErr
}

func (a *bedrockAnalyzer) Analyze(ctx context.Context, transcript string) (*Analysis, error) {
	if err := a.init(ctx); err != nil {
		return nil, err
	}

	system, user, err := buildPrompts(a.logger, transcript, a.cfg.TokenBudget)
	if err != nil {
		return nil, err
	}

	model := bedrockDefaultModel
	if a.cfg.Model != "" {
		model = a.cfg.Model
	}

	resp, err := a.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		System: []bedrock_types.SystemContentBlock{
			&bedrock_types.SystemContentBlockMemberText{Value: system},
		},
		Messages: []bedrock_types.Message{
			{
				Role: bedrock_types.ConversationRoleUser,
				Content: []bedrock_types.ContentBlock{
					&bedrock_types.ContentBlockMemberText{Value: user},
				},
			},
		},
		InferenceConfig: &bedrock_types.InferenceConfiguration{
			MaxTokens:   aws.Int32(bedrockMaxOutputTokens),
			Temperature: aws.Float32(bedrockTemperature),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock-analyzer: analysis request failed: %w", err)
	}

	var reply strings.Builder
	switch output := resp.Output.(type) {
	case *bedrock_types.ConverseOutputMemberMessage:
		for _, block := range output.Value.Content {
			if text, ok := block.(*bedrock_types.ContentBlockMemberText); ok {
				reply.WriteString(text.Value)
			}
		}
	}
	if reply.Len() == 0 {
		return nil, fmt.Errorf("bedrock-analyzer: response carried no text content")
	}

	analysis, err := parseAnalysis(reply.String())
	if err != nil {
		return nil, fmt.Errorf("bedrock-analyzer: %w", err)
	}

	a.logger.Infof("bedrock-analyzer: analyzed transcript, insights=%d", len(analysis.Insights))
	return analysis, nil
}
