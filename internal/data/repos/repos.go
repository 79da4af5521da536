// Package repos re-exports the per-table repositories under one wiring type.
package repos

import (
	"gorm.io/gorm"

	"github.com/evarahealth/clinic-backend/internal/data/repos/assessments"
	"github.com/evarahealth/clinic-backend/internal/data/repos/auth"
	"github.com/evarahealth/clinic-backend/internal/data/repos/content"
	"github.com/evarahealth/clinic-backend/internal/data/repos/files"
	"github.com/evarahealth/clinic-backend/internal/data/repos/uploads"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type (
	UserRepo          = auth.UserRepo
	UserTokenRepo     = auth.UserTokenRepo
	PortalFileRepo    = files.PortalFileRepo
	PortalContentRepo = content.PortalContentRepo
	UploadSessionRepo = uploads.UploadSessionRepo
	SubmissionRepo    = assessments.SubmissionRepo
)

type Set struct {
	User          UserRepo
	UserToken     UserTokenRepo
	PortalFile    PortalFileRepo
	PortalContent PortalContentRepo
	UploadSession UploadSessionRepo
	Submission    SubmissionRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		User:          auth.NewUserRepo(db, log),
		UserToken:     auth.NewUserTokenRepo(db, log),
		PortalFile:    files.NewPortalFileRepo(db, log),
		PortalContent: content.NewPortalContentRepo(db, log),
		UploadSession: uploads.NewUploadSessionRepo(db, log),
		Submission:    assessments.NewSubmissionRepo(db, log),
	}
}
