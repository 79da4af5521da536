package app

import (
	"github.com/gin-gonic/gin"

	appHTTP "github.com/evarahealth/clinic-backend/internal/http"
	httpH "github.com/evarahealth/clinic-backend/internal/http/handlers"
	httpMW "github.com/evarahealth/clinic-backend/internal/http/middleware"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Realtime   *httpH.RealtimeHandler
	File       *httpH.FileHandler
	Upload     *httpH.UploadHandler
	Content    *httpH.ContentHandler
	Assessment *httpH.AssessmentHandler
	Assist     *httpH.AssistHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Auth:       httpH.NewAuthHandler(services.Auth),
		Realtime:   httpH.NewRealtimeHandler(log, hub),
		File:       httpH.NewFileHandler(log, services.File, services.Thumbnail, services.Backfill),
		Upload:     httpH.NewUploadHandler(log, services.File, services.Uploads),
		Content:    httpH.NewContentHandler(services.Content),
		Assessment: httpH.NewAssessmentHandler(services.Assessment),
		Assist:     httpH.NewAssistHandler(services.Assist),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return appHTTP.NewRouter(appHTTP.RouterConfig{
		Log:               log,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		RealtimeHandler:   handlers.Realtime,
		FileHandler:       handlers.File,
		UploadHandler:     handlers.Upload,
		ContentHandler:    handlers.Content,
		AssessmentHandler: handlers.Assessment,
		AssistHandler:     handlers.Assist,
	})
}
