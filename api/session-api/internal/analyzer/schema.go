// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
)

// The analysis schema fails closed: unknown keys, unknown enum values, more
// than MaxInsights entries or missing required fields all reject the whole
// response. Model output is never partially accepted.

var analysisValidator = newAnalysisValidator()

func newAnalysisValidator() *validator.Validate {
	v := validator.New()
	// Enum checks come from the entity registry so extending the category
	// set stays a one-place change.
	_ = v.RegisterValidation("insight_category", func(fl validator.FieldLevel) bool {
		return internal_entity.InsightCategory(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("insight_severity", func(fl validator.FieldLevel) bool {
		return internal_entity.InsightSeverity(fl.Field().String()).IsValid()
	})
	return v
}

// extractJSON trims the noise chat models wrap around JSON payloads:
// markdown fences and leading/trailing prose outside the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return strings.TrimSpace(raw)
	}
	return raw[start : end+1]
}

// parseAnalysis decodes and validates a model response.
func parseAnalysis(raw string) (*Analysis, error) {
	payload := extractJSON(raw)

	var loose map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &loose); err != nil {
		return nil, fmt.Errorf("analysis response is not a JSON object: %w", err)
	}

	var analysis Analysis
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &analysis,
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis decoder: %w", err)
	}
	if err := decoder.Decode(loose); err != nil {
		return nil, fmt.Errorf("analysis response violates schema: %w", err)
	}

	if err := analysisValidator.Struct(&analysis); err != nil {
		return nil, fmt.Errorf("analysis response violates schema: %w", err)
	}

	return &analysis, nil
}
