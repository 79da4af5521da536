package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentSubmission stores one completed questionnaire. The score fields
// are denormalized from the engine result at submission time; the engine
// itself never reads them back.
type AssessmentSubmission struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Instrument string         `gorm:"not null;index" json:"instrument"`
	Responses  datatypes.JSON `gorm:"type:jsonb;not null" json:"responses"`
	Total      int            `gorm:"not null" json:"total"`
	Band       string         `gorm:"not null" json:"band"`
	Subscores  datatypes.JSON `gorm:"type:jsonb" json:"subscores"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AssessmentSubmission) TableName() string { return "assessment_submission" }
