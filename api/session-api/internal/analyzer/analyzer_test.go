package internal_analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger()
	return l
}

// --- Factory Tests ---

func TestNew_SelectsOpenAI(t *testing.T) {
	a, err := New(configs.AnalyzerConfig{Provider: "openai"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "openai-pattern-analyzer", a.Name())
}

func TestNew_SelectsAnthropic(t *testing.T) {
	a, err := New(configs.AnalyzerConfig{Provider: " Anthropic "}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "anthropic-pattern-analyzer", a.Name())
}

func TestNew_SelectsBedrock(t *testing.T) {
	a, err := New(configs.AnalyzerConfig{Provider: "bedrock"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "bedrock-pattern-analyzer", a.Name())
}

func TestNew_UnknownProvider(t *testing.T) {
	a, err := New(configs.AnalyzerConfig{Provider: "llama-local"}, newTestLogger())
	assert.Error(t, err)
	assert.Nil(t, a)
}

// --- Lazy Credential Tests ---

func TestOpenAI_MissingKeySurfacesAtFirstUse(t *testing.T) {
	a := NewOpenAIAnalyzer(configs.AnalyzerConfig{Provider: "openai"}, newTestLogger())

	_, err := a.Analyze(context.Background(), "some transcript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is not configured")
}

func TestAnthropic_MissingKeySurfacesAtFirstUse(t *testing.T) {
	a := NewAnthropicAnalyzer(configs.AnalyzerConfig{Provider: "anthropic"}, newTestLogger())

	_, err := a.Analyze(context.Background(), "some transcript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is not configured")
}

func TestBedrock_MissingRegionSurfacesAtFirstUse(t *testing.T) {
	a := NewBedrockAnalyzer(configs.AnalyzerConfig{Provider: "bedrock"}, newTestLogger())

	_, err := a.Analyze(context.Background(), "some transcript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is not configured")

	// Init failure is memoized, repeat calls fail the same way.
	_, err = a.Analyze(context.Background(), "some transcript")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is not configured")
}

// --- Schema Tests ---

func validInsightJSON(category string) string {
	return `{"category":"` + category + `","pattern":"articles","detail":"drops articles","frequency":2,"severity":"high","examples":["I went to store"],"suggestion":"read aloud daily"}`
}

func TestParseAnalysis_AcceptsWellFormedResponse(t *testing.T) {
	raw := `{
		"insights": [` + validInsightJSON("grammar") + `],
		"focusNext": "practice articles",
		"summary": "clear delivery, minor grammar slips"
	}`

	analysis, err := parseAnalysis(raw)
	require.NoError(t, err)
	require.Len(t, analysis.Insights, 1)
	assert.Equal(t, "grammar", analysis.Insights[0].Category)
	assert.Equal(t, 2, analysis.Insights[0].Frequency)
	assert.Equal(t, "practice articles", analysis.FocusNext)
}

func TestParseAnalysis_AcceptsEmptyInsights(t *testing.T) {
	analysis, err := parseAnalysis(`{"insights":[],"focusNext":"keep practicing","summary":"clean speech"}`)
	require.NoError(t, err)
	assert.Empty(t, analysis.Insights)
	assert.Equal(t, "keep practicing", analysis.FocusNext)
}

func TestParseAnalysis_StripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"insights\":[],\"focusNext\":\"f\",\"summary\":\"s\"}\n```"
	analysis, err := parseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "f", analysis.FocusNext)
}

func TestParseAnalysis_CoercesStringFrequency(t *testing.T) {
	raw := `{"insights":[{"category":"grammar","pattern":"articles","frequency":"3","severity":"low"}],"focusNext":"","summary":""}`
	analysis, err := parseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.Insights[0].Frequency)
}

func TestParseAnalysis_RejectsTooManyInsights(t *testing.T) {
	insights := ""
	for i := 0; i < 6; i++ {
		if i > 0 {
			insights += ","
		}
		insights += validInsightJSON("grammar")
	}
	_, err := parseAnalysis(`{"insights":[` + insights + `],"focusNext":"","summary":""}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violates schema")
}

func TestParseAnalysis_RejectsUnknownCategory(t *testing.T) {
	_, err := parseAnalysis(`{"insights":[` + validInsightJSON("pronunciation") + `],"focusNext":"","summary":""}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violates schema")
}

func TestParseAnalysis_RejectsUnknownSeverity(t *testing.T) {
	raw := `{"insights":[{"category":"grammar","pattern":"articles","severity":"critical"}],"focusNext":"","summary":""}`
	_, err := parseAnalysis(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violates schema")
}

func TestParseAnalysis_RejectsMissingRequiredFields(t *testing.T) {
	raw := `{"insights":[{"detail":"something"}],"focusNext":"","summary":""}`
	_, err := parseAnalysis(raw)
	require.Error(t, err)
}

func TestParseAnalysis_RejectsUnknownTopLevelKey(t *testing.T) {
	raw := `{"insights":[],"focusNext":"","summary":"","confidence":0.8}`
	_, err := parseAnalysis(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violates schema")
}

func TestParseAnalysis_RejectsUnknownInsightKey(t *testing.T) {
	raw := `{"insights":[{"category":"grammar","pattern":"articles","score":9}],"focusNext":"","summary":""}`
	_, err := parseAnalysis(raw)
	require.Error(t, err)
}

func TestParseAnalysis_RejectsNegativeFrequency(t *testing.T) {
	raw := `{"insights":[{"category":"grammar","pattern":"articles","frequency":-2}],"focusNext":"","summary":""}`
	_, err := parseAnalysis(raw)
	require.Error(t, err)
}

func TestParseAnalysis_RejectsNonObjectResponse(t *testing.T) {
	_, err := parseAnalysis(`"just a string"`)
	require.Error(t, err)
}

// --- Prompt Tests ---

func TestBuildPrompts_EmbedsTranscriptAndEnums(t *testing.T) {
	system, user, err := buildPrompts(newTestLogger(), `He said "I going to store" twice.`, 0)
	require.NoError(t, err)

	assert.Contains(t, system, "grammar | vocabulary | structure")
	assert.Contains(t, system, "high | medium | low")
	assert.Contains(t, system, "at most 5 insights")
	// Raw transcript must survive template rendering unescaped.
	assert.Contains(t, user, `He said "I going to store" twice.`)
}

func TestClampTranscript_ZeroBudgetLeavesTranscriptAlone(t *testing.T) {
	transcript := "anything at all"
	assert.Equal(t, transcript, clampTranscript(newTestLogger(), transcript, 0))
}

func TestClampTranscript_ShortTranscriptUntouched(t *testing.T) {
	transcript := "short enough"
	assert.Equal(t, transcript, clampTranscript(newTestLogger(), transcript, 1000))
}
