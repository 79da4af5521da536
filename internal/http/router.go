package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/evarahealth/clinic-backend/internal/http/handlers"
	httpMW "github.com/evarahealth/clinic-backend/internal/http/middleware"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	RealtimeHandler   *httpH.RealtimeHandler
	FileHandler       *httpH.FileHandler
	UploadHandler     *httpH.UploadHandler
	ContentHandler    *httpH.ContentHandler
	AssessmentHandler *httpH.AssessmentHandler
	AssistHandler     *httpH.AssistHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}

		// Published portal content is readable without auth.
		if cfg.ContentHandler != nil {
			api.GET("/portal/content", cfg.ContentHandler.List)
			api.GET("/portal/pillars", cfg.ContentHandler.Catalog)
		}
		if cfg.AssessmentHandler != nil {
			api.GET("/assessments", cfg.AssessmentHandler.ListInstruments)
			api.GET("/assessments/:key", cfg.AssessmentHandler.GetInstrument)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.Stream)
		}

		if cfg.FileHandler != nil {
			protected.POST("/files/upload", cfg.FileHandler.Upload)
			protected.GET("/files", cfg.FileHandler.List)
			protected.GET("/files/:id", cfg.FileHandler.Get)
			protected.DELETE("/files/:id", cfg.FileHandler.Delete)
			protected.POST("/files/:id/thumbnail", cfg.FileHandler.GenerateThumbnail)
			protected.POST("/files/backfill-thumbnails", cfg.FileHandler.BackfillThumbnails)
		}

		if cfg.UploadHandler != nil {
			protected.POST("/uploads", cfg.UploadHandler.Begin)
			protected.PUT("/uploads/:id/parts/:part", cfg.UploadHandler.PutPart)
			protected.POST("/uploads/:id/finish", cfg.UploadHandler.Finish)
			protected.POST("/uploads/:id/abort", cfg.UploadHandler.Abort)
			protected.GET("/uploads/:id/progress", cfg.UploadHandler.Progress)
		}

		if cfg.ContentHandler != nil {
			protected.POST("/content", cfg.ContentHandler.Create)
			protected.GET("/content", cfg.ContentHandler.List)
			protected.GET("/content/:id", cfg.ContentHandler.Get)
			protected.PUT("/content/:id", cfg.ContentHandler.Update)
			protected.PATCH("/content/:id/publish", cfg.ContentHandler.SetPublished)
			protected.DELETE("/content/:id", cfg.ContentHandler.Delete)
		}

		if cfg.AssessmentHandler != nil {
			protected.POST("/assessments/:key/submit", cfg.AssessmentHandler.Submit)
			protected.GET("/assessments/:key/history", cfg.AssessmentHandler.History)
		}

		if cfg.AssistHandler != nil {
			protected.GET("/assist/actions", cfg.AssistHandler.Actions)
			protected.POST("/assist", cfg.AssistHandler.Run)
		}
	}

	return r
}
