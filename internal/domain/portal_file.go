package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FileType is inferred from the uploaded file's extension, never from content.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

type FileStatus string

const (
	FileStatusUploading    FileStatus = "uploading"
	FileStatusUploaded     FileStatus = "uploaded"
	FileStatusUploadFailed FileStatus = "upload_failed"
)

// PortalFile is one uploaded asset: the stored object's metadata row.
// The thumbnail URL may be backfilled after creation.
type PortalFile struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	OriginalName string         `gorm:"not null" json:"original_name"`
	Type         FileType       `gorm:"not null;index" json:"type"`
	Size         int64          `gorm:"not null" json:"size"`
	Folder       string         `gorm:"not null;index" json:"folder"`
	StorageKey   string         `gorm:"not null;index" json:"storage_key"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	Status       FileStatus     `gorm:"not null;default:'uploading';index" json:"status"`
	Metadata     datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PortalFile) TableName() string { return "portal_file" }
