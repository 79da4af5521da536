package assessments

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type SubmissionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.AssessmentSubmission) ([]*domain.AssessmentSubmission, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID, instrument string) ([]*domain.AssessmentSubmission, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *submissionRepo) Create(dbc dbctx.Context, rows []*domain.AssessmentSubmission) ([]*domain.AssessmentSubmission, error) {
	if len(rows) == 0 {
		return []*domain.AssessmentSubmission{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID, instrument string) ([]*domain.AssessmentSubmission, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID)
	if instrument != "" {
		q = q.Where("instrument = ?", instrument)
	}
	var results []*domain.AssessmentSubmission
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *submissionRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&domain.AssessmentSubmission{}).Error
}
