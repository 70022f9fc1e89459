package internal_entity

import (
	"time"

	gorm_generator "github.com/speakwise/pkg/models/gorm/generators"
	"gorm.io/gorm"
)

// SessionStatus is the pipeline position of a session. Transitions only move
// forward through the graph or to FAILED; a status never regresses.
type SessionStatus string

const (
	SessionCreated      SessionStatus = "CREATED"      // Row exists, audio not uploaded yet
	SessionUploaded     SessionStatus = "UPLOADED"     // Audio stored, waiting for a pipeline run
	SessionTranscribing SessionStatus = "TRANSCRIBING" // Pipeline claimed the session, speech-to-text in flight
	SessionAnalyzing    SessionStatus = "ANALYZING"    // Transcript persisted, pattern analysis in flight
	SessionDone         SessionStatus = "DONE"         // Feedback ready
	SessionFailed       SessionStatus = "FAILED"       // Terminal failure, see ErrorMessage
)

// IsTerminal reports whether the status can never change again.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionDone || s == SessionFailed
}

// Session is one recording-to-feedback lifecycle. It bridges the upload
// endpoint and the asynchronous pipeline run that follows.
//
// Stored in Postgres (sessions table). The status column provides atomic
// claiming: only one delivery of a pipeline job can transition
// UPLOADED→TRANSCRIBING.
type Session struct {
	Id        uint64        `json:"id" gorm:"type:bigint;primaryKey;<-:create"`
	SessionId string        `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	UserId    string        `json:"userId" gorm:"column:user_id;type:varchar(36);not null;index"`
	Status    SessionStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:CREATED"`

	// AudioKey is retained as a historical reference after the object is
	// purged; AudioDeletedAt records the purge.
	AudioKey         string     `json:"audioKey" gorm:"column:audio_key;type:varchar(512);not null;default:''"`
	AudioContentType string     `json:"audioContentType" gorm:"column:audio_content_type;type:varchar(100);not null;default:''"`
	AudioDeletedAt   *time.Time `json:"audioDeletedAt" gorm:"column:audio_deleted_at;type:timestamp;default:null"`

	ErrorMessage string `json:"errorMessage" gorm:"column:error_message;type:text;not null;default:''"`
	FocusNext    string `json:"focusNext" gorm:"column:focus_next;type:text;not null;default:''"`

	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`

	Transcript *Transcript `json:"transcript,omitempty" gorm:"foreignKey:SessionId;references:SessionId;constraint:OnDelete:CASCADE"`
	Insights   []*Insight  `json:"insights,omitempty" gorm:"foreignKey:SessionId;references:SessionId;constraint:OnDelete:CASCADE"`
}

// CREATE TABLE sessions (
//     id BIGINT PRIMARY KEY,
//     session_id VARCHAR(36) NOT NULL UNIQUE,
//     user_id VARCHAR(36) NOT NULL,
//     status VARCHAR(20) NOT NULL DEFAULT 'CREATED',
//     audio_key VARCHAR(512) NOT NULL DEFAULT '',
//     audio_content_type VARCHAR(100) NOT NULL DEFAULT '',
//     audio_deleted_at TIMESTAMP,
//     error_message TEXT NOT NULL DEFAULT '',
//     focus_next TEXT NOT NULL DEFAULT '',
//     created_date TIMESTAMP NOT NULL DEFAULT NOW(),
//     updated_date TIMESTAMP
// );

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Id <= 0 {
		s.Id = gorm_generator.ID()
	}
	if s.CreatedDate.IsZero() {
		s.CreatedDate = time.Now()
	}
	return nil
}

// HasAudio reports whether an audio object was ever recorded for the session.
func (s *Session) HasAudio() bool {
	return s.AudioKey != ""
}

// IsProcessable reports whether a pipeline run may claim the session.
func (s *Session) IsProcessable() bool {
	return s.Status == SessionUploaded
}
