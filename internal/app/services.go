package app

import (
	"fmt"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/platform/assist"
	"github.com/evarahealth/clinic-backend/internal/platform/gcs"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/platform/media"
	"github.com/evarahealth/clinic-backend/internal/realtime"
	"github.com/evarahealth/clinic-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	File       services.FileService
	Uploads    *services.UploadManager
	Thumbnail  services.ThumbnailService
	Backfill   services.BackfillService
	Content    services.ContentService
	Assessment services.AssessmentService
	Assist     services.AssistService
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Set, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	store, err := gcs.NewObjectStore(log)
	if err != nil {
		return Services{}, fmt.Errorf("init object store: %w", err)
	}

	authService, err := services.NewAuthService(log, reposet.User, reposet.UserToken)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	manager := services.NewUploadManager(log, store, reposet.UploadSession, hub)
	fileService := services.NewFileService(log, store, reposet.PortalFile, reposet.PortalContent, manager, authService)

	renderer := media.NewPDFRenderer(log)
	thumbnailService := services.NewThumbnailService(log, store, reposet.PortalFile, renderer)
	backfillService := services.NewBackfillService(log, reposet.PortalFile, thumbnailService, hub)

	catalog, err := services.LoadPillarCatalog(cfg.PillarCatalog)
	if err != nil {
		log.Warn("pillar catalog unavailable; operator-supplied subsections only", "error", err)
		catalog = &services.PillarCatalog{}
	}
	contentService := services.NewContentService(log, reposet.PortalContent, catalog)

	assessmentService := services.NewAssessmentService(log, reposet.Submission)

	// Assist is optional: without an API key the endpoints report
	// "not configured" instead of blocking startup.
	var assistService services.AssistService
	if client, err := assist.NewClient(log); err != nil {
		log.Warn("assist client unavailable", "error", err)
		assistService = services.NewAssistService(log, nil)
	} else {
		assistService = services.NewAssistService(log, client)
	}

	return Services{
		Auth:       authService,
		File:       fileService,
		Uploads:    manager,
		Thumbnail:  thumbnailService,
		Backfill:   backfillService,
		Content:    contentService,
		Assessment: assessmentService,
		Assist:     assistService,
	}, nil
}
