package internal_entity

import (
	"fmt"
	"time"

	gorm_generator "github.com/speakwise/pkg/models/gorm/generators"
	"gorm.io/gorm"
)

// PatternProfile is the running aggregate of a user's recurring speech
// patterns across all their completed sessions. One row per user.
//
// Patterns maps "<category>:<pattern>" to a cumulative occurrence count.
// Counters only ever grow; re-processing a session grows them again.
type PatternProfile struct {
	Id          uint64           `json:"id" gorm:"type:bigint;primaryKey;<-:create"`
	UserId      string           `json:"userId" gorm:"column:user_id;type:varchar(36);not null;uniqueIndex"`
	Patterns    map[string]int64 `json:"patterns" gorm:"column:patterns;serializer:json;type:jsonb"`
	LastUpdated time.Time        `json:"lastUpdated" gorm:"column:last_updated;type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	CreatedDate time.Time        `json:"createdDate" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
}

// CREATE TABLE pattern_profiles (
//     id BIGINT PRIMARY KEY,
//     user_id VARCHAR(36) NOT NULL UNIQUE,
//     patterns JSONB,
//     last_updated TIMESTAMP NOT NULL DEFAULT NOW(),
//     created_date TIMESTAMP NOT NULL DEFAULT NOW()
// );

func (PatternProfile) TableName() string {
	return "pattern_profiles"
}

func (p *PatternProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.Id <= 0 {
		p.Id = gorm_generator.ID()
	}
	if p.CreatedDate.IsZero() {
		p.CreatedDate = time.Now()
	}
	return nil
}

// PatternKey builds the profile counter key for an insight.
func PatternKey(category InsightCategory, pattern string) string {
	return fmt.Sprintf("%s:%s", category, pattern)
}
