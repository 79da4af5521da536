package files

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

// ListFilter narrows List to a folder, owner, or thumbnail state. Zero
// values mean "no constraint".
type ListFilter struct {
	OwnerID          uuid.UUID
	Folder           string
	Type             domain.FileType
	MissingThumbnail bool
}

type PortalFileRepo interface {
	Create(dbc dbctx.Context, files []*domain.PortalFile) ([]*domain.PortalFile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.PortalFile, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*domain.PortalFile, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.FileStatus) error
	UpdateAfterUpload(dbc dbctx.Context, id uuid.UUID, storageKey, url string) error
	UpdateThumbnailURL(dbc dbctx.Context, id uuid.UUID, thumbnailURL string) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type portalFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPortalFileRepo(db *gorm.DB, baseLog *logger.Logger) PortalFileRepo {
	return &portalFileRepo{db: db, log: baseLog.With("repo", "PortalFileRepo")}
}

func (r *portalFileRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *portalFileRepo) Create(dbc dbctx.Context, files []*domain.PortalFile) ([]*domain.PortalFile, error) {
	if len(files) == 0 {
		return []*domain.PortalFile{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *portalFileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.PortalFile, error) {
	var results []*domain.PortalFile
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

func (r *portalFileRepo) List(dbc dbctx.Context, filter ListFilter) ([]*domain.PortalFile, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.PortalFile{})
	if filter.OwnerID != uuid.Nil {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Folder != "" {
		q = q.Where("folder = ?", filter.Folder)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.MissingThumbnail {
		q = q.Where("(thumbnail_url IS NULL OR thumbnail_url = '')")
	}
	var results []*domain.PortalFile
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *portalFileRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.FileStatus) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.PortalFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *portalFileRepo) UpdateAfterUpload(dbc dbctx.Context, id uuid.UUID, storageKey, url string) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.PortalFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"storage_key": storageKey,
			"url":         url,
			"status":      domain.FileStatusUploaded,
			"updated_at":  time.Now(),
		}).Error
}

func (r *portalFileRepo) UpdateThumbnailURL(dbc dbctx.Context, id uuid.UUID, thumbnailURL string) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.PortalFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"thumbnail_url": thumbnailURL,
			"updated_at":    time.Now(),
		}).Error
}

func (r *portalFileRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&domain.PortalFile{}).Error
}

func (r *portalFileRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&domain.PortalFile{}).Error
}
