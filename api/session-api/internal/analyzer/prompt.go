// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_analyzer

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/pkoukk/tiktoken-go"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/utils"
)

const clampEncoding = "cl100k_base"

var systemTemplate = pongo2.Must(pongo2.FromString(strings.TrimSpace(`
You are an experienced English speaking coach. You analyze the transcript of a
user's spoken practice session and identify recurring patterns worth coaching.

Respond with a single JSON object and nothing else, in exactly this shape:
{
  "insights": [
    {
      "category": "<one of: {{ categories|safe }}>",
      "pattern": "<short label for the recurring pattern>",
      "detail": "<what the speaker does and why it matters>",
      "frequency": <integer occurrence count in this transcript>,
      "severity": "<one of: {{ severities|safe }}>",
      "examples": ["<verbatim quote from the transcript>"],
      "suggestion": "<one concrete exercise to improve>"
    }
  ],
  "focusNext": "<the single most valuable thing to practice next>",
  "summary": "<one or two sentences on overall speaking quality>"
}

Rules: at most {{ maxInsights }} insights, fewer when the speech is clean. Use
only the listed category and severity values. Do not invent patterns that are
not evidenced by the transcript. Do not wrap the JSON in markdown fences.
`)))

var userTemplate = pongo2.Must(pongo2.FromString(strings.TrimSpace(`
Analyze this practice-session transcript:

{{ transcript|safe }}
`)))

// buildPrompts renders the system and user prompts for one transcript. The
// transcript is clamped to the configured token budget first so oversized
// recordings cannot blow the model's context window.
func buildPrompts(logger commons.Logger, transcript string, tokenBudget int) (string, string, error) {
	clamped := clampTranscript(logger, transcript, tokenBudget)

	system, err := systemTemplate.Execute(pongo2.Context{
		"categories":  joinCategories(),
		"severities":  joinSeverities(),
		"maxInsights": MaxInsights,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}

	user, err := userTemplate.Execute(pongo2.Context{
		"transcript": clamped,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}

	return system, user, nil
}

// clampTranscript cuts the transcript down to at most tokenBudget tokens.
// When the tokenizer assets are unavailable it falls back to an approximate
// four-characters-per-token cut rather than failing the analysis.
func clampTranscript(logger commons.Logger, transcript string, tokenBudget int) string {
	if tokenBudget <= 0 {
		return transcript
	}

	encoder, err := tiktoken.GetEncoding(clampEncoding)
	if err != nil {
		logger.Warnf("analyzer: tokenizer unavailable (%v), clamping by character count", err)
		return utils.Truncate(transcript, tokenBudget*4)
	}

	tokens := encoder.Encode(transcript, nil, nil)
	if len(tokens) <= tokenBudget {
		return transcript
	}

	logger.Infof("analyzer: clamping transcript from %d to %d tokens", len(tokens), tokenBudget)
	return encoder.Decode(tokens[:tokenBudget])
}

func joinCategories() string {
	names := make([]string, 0, len(internal_entity.InsightCategories))
	for _, c := range internal_entity.InsightCategories {
		names = append(names, string(c))
	}
	return strings.Join(names, " | ")
}

func joinSeverities() string {
	names := make([]string, 0, len(internal_entity.InsightSeverities))
	for _, s := range internal_entity.InsightSeverities {
		names = append(names, string(s))
	}
	return strings.Join(names, " | ")
}
