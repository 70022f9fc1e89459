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

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

// =============================================================================
// Pattern Analysis Interface
// =============================================================================

// MaxInsights bounds how many insights a single analysis may produce. A
// response carrying more is rejected outright, never trimmed.
const MaxInsights = 5

// Insight is one detected speaking pattern as emitted by the analysis model,
// before it is persisted.
type Insight struct {
	Category   string   `json:"category" validate:"required,insight_category"`
	Pattern    string   `json:"pattern" validate:"required"`
	Detail     string   `json:"detail"`
	Frequency  int      `json:"frequency" validate:"gte=0"`
	Severity   string   `json:"severity" validate:"omitempty,insight_severity"`
	Examples   []string `json:"examples"`
	Suggestion string   `json:"suggestion"`
}

// Analysis is the validated outcome of analyzing one transcript.
type Analysis struct {
	Insights  []Insight `json:"insights" validate:"max=5,dive"`
	FocusNext string    `json:"focusNext"`
	Summary   string    `json:"summary"`
}

// PatternAnalyzer turns a transcript into structured coaching feedback.
//
// Implementations are lazy singletons: the vendor client is built on first
// use, so missing credentials surface from the first Analyze call rather than
// at process startup. Responses are schema-validated fail-closed; a malformed
// model reply is an error, never a partially accepted result.
type PatternAnalyzer interface {
	// Name identifies the provider implementation.
	Name() string

	// Analyze submits the transcript and blocks until the model's response
	// has been parsed and validated.
	Analyze(ctx context.Context, transcript string) (*Analysis, error)
}

// =============================================================================
// Provider Factory
// =============================================================================

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// New builds the configured pattern-analysis provider.
func New(cfg configs.AnalyzerConfig, logger commons.Logger) (PatternAnalyzer, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case ProviderOpenAI:
		return NewOpenAIAnalyzer(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropicAnalyzer(cfg, logger), nil
	case ProviderBedrock:
		return NewBedrockAnalyzer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("analyzer: unknown provider %q", cfg.Provider)
	}
}
