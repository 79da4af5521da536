package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadStatus string

const (
	UploadStatusActive   UploadStatus = "active"
	UploadStatusComplete UploadStatus = "complete"
	UploadStatusAborted  UploadStatus = "aborted"
)

// UploadSession is the durable half of a chunked upload: enough bookkeeping
// to find and resume an interrupted transfer. Live abort handles and progress
// counters stay in the upload manager's in-memory registry.
type UploadSession struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner         *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	Name          string       `gorm:"not null;index" json:"name"`
	Folder        string       `gorm:"not null" json:"folder"`
	StorageKey    string       `gorm:"not null" json:"storage_key"`
	ContentType   string       `json:"content_type"`
	TotalBytes    int64        `gorm:"not null" json:"total_bytes"`
	ChunkSize     int64        `gorm:"not null" json:"chunk_size"`
	ReceivedParts int          `gorm:"not null;default:0" json:"received_parts"`
	ReceivedBytes int64        `gorm:"not null;default:0" json:"received_bytes"`
	Status        UploadStatus `gorm:"not null;default:'active';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UploadSession) TableName() string { return "upload_session" }
