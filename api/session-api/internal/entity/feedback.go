package internal_entity

import (
	gorm_model "github.com/speakwise/pkg/models/gorm"
)

// InsightCategory buckets an insight into one of the coached skill areas.
type InsightCategory string

const (
	CategoryGrammar    InsightCategory = "grammar"
	CategoryVocabulary InsightCategory = "vocabulary"
	CategoryStructure  InsightCategory = "structure"
)

// InsightCategories is the closed set of categories the analyzer may emit.
var InsightCategories = []InsightCategory{
	CategoryGrammar,
	CategoryVocabulary,
	CategoryStructure,
}

func (c InsightCategory) IsValid() bool {
	for _, known := range InsightCategories {
		if c == known {
			return true
		}
	}
	return false
}

// InsightSeverity ranks how much an insight should influence coaching focus.
type InsightSeverity string

const (
	SeverityHigh   InsightSeverity = "high"
	SeverityMedium InsightSeverity = "medium"
	SeverityLow    InsightSeverity = "low"
)

// InsightSeverities is the closed set of severities the analyzer may emit.
var InsightSeverities = []InsightSeverity{
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
}

func (s InsightSeverity) IsValid() bool {
	for _, known := range InsightSeverities {
		if s == known {
			return true
		}
	}
	return false
}

// Transcript is the text produced from a session's audio. At most one row
// per session, enforced by the unique index.
type Transcript struct {
	gorm_model.Audited
	SessionId string `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Text      string `json:"text" gorm:"column:text;type:text;not null"`
	WordCount int    `json:"wordCount" gorm:"column:word_count;type:int;not null;default:0"`
}

// CREATE TABLE transcripts (
//     id BIGINT PRIMARY KEY,
//     session_id VARCHAR(36) NOT NULL UNIQUE REFERENCES sessions(session_id) ON DELETE CASCADE,
//     text TEXT NOT NULL,
//     word_count INT NOT NULL DEFAULT 0,
//     created_date TIMESTAMP NOT NULL DEFAULT NOW(),
//     updated_date TIMESTAMP
// );

func (Transcript) TableName() string {
	return "transcripts"
}

// Insight is one piece of analyzer feedback attached to a session. A session
// carries at most five.
type Insight struct {
	gorm_model.Audited
	SessionId  string          `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;index"`
	Category   InsightCategory `json:"category" gorm:"column:category;type:varchar(20);not null"`
	Pattern    string          `json:"pattern" gorm:"column:pattern;type:varchar(120);not null"`
	Detail     string          `json:"detail" gorm:"column:detail;type:text;not null;default:''"`
	Frequency  int             `json:"frequency" gorm:"column:frequency;type:int;not null;default:0"`
	Severity   InsightSeverity `json:"severity" gorm:"column:severity;type:varchar(10);not null"`
	Examples   []string        `json:"examples" gorm:"column:examples;serializer:json;type:jsonb"`
	Suggestion string          `json:"suggestion" gorm:"column:suggestion;type:text;not null;default:''"`
}

// CREATE TABLE insights (
//     id BIGINT PRIMARY KEY,
//     session_id VARCHAR(36) NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
//     category VARCHAR(20) NOT NULL,
//     pattern VARCHAR(120) NOT NULL,
//     detail TEXT NOT NULL DEFAULT '',
//     frequency INT NOT NULL DEFAULT 0,
//     severity VARCHAR(10) NOT NULL,
//     examples JSONB,
//     suggestion TEXT NOT NULL DEFAULT '',
//     created_date TIMESTAMP NOT NULL DEFAULT NOW(),
//     updated_date TIMESTAMP
// );

func (Insight) TableName() string {
	return "insights"
}
