package gorm_model

import (
	"time"

	gorm_generator "github.com/speakwise/pkg/models/gorm/generators"
	"gorm.io/gorm"
)

// Audited is the base for persisted records: generated bigint id plus
// creation/update stamps. Id and CreatedDate are write-once.
type Audited struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;<-:create"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

func (a *Audited) BeforeCreate(tx *gorm.DB) (err error) {
	if a.Id <= 0 {
		a.Id = gorm_generator.ID()
	}
	if a.CreatedDate.IsZero() {
		a.CreatedDate = time.Now()
	}
	return nil
}
