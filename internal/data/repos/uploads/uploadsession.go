package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type UploadSessionRepo interface {
	Create(dbc dbctx.Context, sessions []*domain.UploadSession) ([]*domain.UploadSession, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.UploadSession, error)
	// FindResumable returns the newest active session matching owner, name and
	// size, or nil when there is nothing to resume.
	FindResumable(dbc dbctx.Context, ownerID uuid.UUID, name string, totalBytes int64) (*domain.UploadSession, error)
	RecordPart(dbc dbctx.Context, id uuid.UUID, receivedParts int, receivedBytes int64) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.UploadStatus) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type uploadSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadSessionRepo(db *gorm.DB, baseLog *logger.Logger) UploadSessionRepo {
	return &uploadSessionRepo{db: db, log: baseLog.With("repo", "UploadSessionRepo")}
}

func (r *uploadSessionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *uploadSessionRepo) Create(dbc dbctx.Context, sessions []*domain.UploadSession) ([]*domain.UploadSession, error) {
	if len(sessions) == 0 {
		return []*domain.UploadSession{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *uploadSessionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.UploadSession, error) {
	var results []*domain.UploadSession
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *uploadSessionRepo) FindResumable(dbc dbctx.Context, ownerID uuid.UUID, name string, totalBytes int64) (*domain.UploadSession, error) {
	var session domain.UploadSession
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("owner_id = ? AND name = ? AND total_bytes = ? AND status = ?",
			ownerID, name, totalBytes, domain.UploadStatusActive).
		Order("created_at DESC").
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *uploadSessionRepo) RecordPart(dbc dbctx.Context, id uuid.UUID, receivedParts int, receivedBytes int64) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UploadSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"received_parts": receivedParts,
			"received_bytes": receivedBytes,
			"updated_at":     time.Now(),
		}).Error
}

func (r *uploadSessionRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.UploadStatus) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UploadSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *uploadSessionRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&domain.UploadSession{}).Error
}
