package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type ListFilter struct {
	Pillar        string
	Subsection    string
	ContentType   string
	PublishedOnly bool
}

type PortalContentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.PortalContent) ([]*domain.PortalContent, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.PortalContent, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*domain.PortalContent, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	SoftDeleteByFileIDs(dbc dbctx.Context, fileIDs []uuid.UUID) error
}

type portalContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPortalContentRepo(db *gorm.DB, baseLog *logger.Logger) PortalContentRepo {
	return &portalContentRepo{db: db, log: baseLog.With("repo", "PortalContentRepo")}
}

func (r *portalContentRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *portalContentRepo) Create(dbc dbctx.Context, rows []*domain.PortalContent) ([]*domain.PortalContent, error) {
	if len(rows) == 0 {
		return []*domain.PortalContent{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *portalContentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.PortalContent, error) {
	var results []*domain.PortalContent
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

func (r *portalContentRepo) List(dbc dbctx.Context, filter ListFilter) ([]*domain.PortalContent, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&domain.PortalContent{})
	if filter.Pillar != "" {
		q = q.Where("pillar = ?", filter.Pillar)
	}
	if filter.Subsection != "" {
		q = q.Where("subsection = ?", filter.Subsection)
	}
	if filter.ContentType != "" {
		q = q.Where("content_type = ?", filter.ContentType)
	}
	if filter.PublishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var results []*domain.PortalContent
	if err := q.Order("pillar, subsection, display_order, created_at").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *portalContentRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.PortalContent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *portalContentRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&domain.PortalContent{}).Error
}

func (r *portalContentRepo) SoftDeleteByFileIDs(dbc dbctx.Context, fileIDs []uuid.UUID) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("file_id IN ?", fileIDs).
		Delete(&domain.PortalContent{}).Error
}
