// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	internal_entity "github.com/speakwise/api/session-api/internal/entity"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
)

// ErrProfileNotFound is returned when a user has no pattern profile yet.
var ErrProfileNotFound = errors.New("pattern profile not found")

// Aggregator folds a session's insights into the user's long-term pattern
// profile.
//
// Aggregation is deliberately not idempotent: it performs no deduplication,
// so feeding it the same insights twice doubles the counts. The pipeline's
// claim guard is what prevents duplicate invocation for a session; the
// aggregator itself only guarantees that counts are additive across calls.
// Concurrent aggregations for the same user are last-writer-wins on the map
// value, an accepted race given one profile row per user.
type Aggregator interface {
	// Aggregate merges the insight batch into the user's profile, creating
	// the profile on first use and stamping lastUpdated.
	Aggregate(ctx context.Context, userID string, insights []*internal_entity.Insight) error

	// Get retrieves a user's profile. Returns ErrProfileNotFound (wrapped)
	// when the user has never had a session aggregated.
	Get(ctx context.Context, userID string) (*internal_entity.PatternProfile, error)
}

type postgresAggregator struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewAggregator creates a pattern aggregator backed by Postgres.
func NewAggregator(postgres connectors.PostgresConnector, logger commons.Logger) Aggregator {
	return &postgresAggregator{
		postgres: postgres,
		logger:   logger,
	}
}

func (a *postgresAggregator) Aggregate(ctx context.Context, userID string, insights []*internal_entity.Insight) error {
	if len(insights) == 0 {
		a.logger.Debugf("no insights to aggregate: user=%s", userID)
		return nil
	}

	db := a.postgres.DB(ctx)

	var profile internal_entity.PatternProfile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = internal_entity.PatternProfile{UserId: userID}
	case err != nil:
		return fmt.Errorf("failed to load pattern profile for user %s: %w", userID, err)
	}

	if profile.Patterns == nil {
		profile.Patterns = make(map[string]int64, len(insights))
	}
	for _, insight := range insights {
		by := int64(insight.Frequency)
		if by <= 0 {
			by = 1
		}
		profile.Patterns[internal_entity.PatternKey(insight.Category, insight.Pattern)] += by
	}
	profile.LastUpdated = time.Now()

	if profile.Id == 0 {
		// First aggregation for this user. ON CONFLICT covers the race where
		// two first-time aggregations collide on user_id.
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"patterns", "last_updated"}),
		}).Create(&profile).Error
	} else {
		// Struct-based save so the json serializer on Patterns applies.
		err = db.Save(&profile).Error
	}
	if err != nil {
		return fmt.Errorf("failed to upsert pattern profile for user %s: %w", userID, err)
	}

	a.logger.Infof("aggregated insights into profile: user=%s, merged=%d, tracked=%d",
		userID, len(insights), len(profile.Patterns))

	return nil
}

func (a *postgresAggregator) Get(ctx context.Context, userID string) (*internal_entity.PatternProfile, error) {
	db := a.postgres.DB(ctx)
	var profile internal_entity.PatternProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load pattern profile for user %s: %w", userID, err)
	}
	return &profile, nil
}
