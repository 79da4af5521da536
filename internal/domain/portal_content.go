package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PortalContent places an asset (or inline content) into the patient portal:
// pillar -> subsection -> ordered entry.
type PortalContent struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	FileID       *uuid.UUID     `gorm:"type:uuid;index" json:"file_id,omitempty"`
	File         *PortalFile    `gorm:"constraint:OnDelete:SET NULL;foreignKey:FileID;references:ID" json:"file,omitempty"`
	Pillar       string         `gorm:"not null;index" json:"pillar"`
	Subsection   string         `gorm:"not null;index" json:"subsection"`
	ContentType  string         `gorm:"not null;index" json:"content_type"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	ContentData  datatypes.JSON `gorm:"type:jsonb" json:"content_data"`
	Tags         datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	DisplayOrder int            `gorm:"not null;default:0;index" json:"display_order"`
	IsPublished  bool           `gorm:"not null;default:false;index" json:"is_published"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PortalContent) TableName() string { return "portal_content" }
