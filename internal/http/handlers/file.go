package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos/files"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/http/response"
	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/services"
)

type FileHandler struct {
	log         *logger.Logger
	fileService services.FileService
	thumbnails  services.ThumbnailService
	backfill    services.BackfillService
}

func NewFileHandler(log *logger.Logger, fileService services.FileService, thumbnails services.ThumbnailService, backfill services.BackfillService) *FileHandler {
	return &FileHandler{
		log:         log.With("handler", "FileHandler"),
		fileService: fileService,
		thumbnails:  thumbnails,
		backfill:    backfill,
	}
}

// Upload accepts a multipart form with one or more "files" entries plus an
// optional "folder" field. Files route individually through the direct or
// chunked path based on size.
func (fh *FileHandler) Upload(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	form, err := c.MultipartForm()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("no files in request"))
		return
	}
	folder := c.PostForm("folder")

	inputs := make([]services.UploadInput, 0, len(fileHeaders))
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		opened = append(opened, f)
		inputs = append(inputs, services.UploadInput{
			OwnerID:      rd.UserID,
			OriginalName: header.Filename,
			Folder:       folder,
			ContentType:  header.Header.Get("Content-Type"),
			Size:         header.Size,
			Body:         f,
		})
	}

	summary, err := fh.fileService.UploadMany(dbctx.Context{Ctx: c.Request.Context()}, inputs)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondOK(c, summary)
}

func (fh *FileHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	filter := files.ListFilter{
		OwnerID:          rd.UserID,
		Folder:           c.Query("folder"),
		Type:             domain.FileType(c.Query("type")),
		MissingThumbnail: c.Query("missing_thumbnail") == "true",
	}
	rows, err := fh.fileService.List(dbctx.Context{Ctx: c.Request.Context()}, filter)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"files": rows})
}

func (fh *FileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	file, err := fh.fileService.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondOK(c, file)
}

func (fh *FileHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := fh.fileService.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// BackfillThumbnails walks the caller's files missing a thumbnail. The run is
// synchronous and sequential; progress streams over SSE.
func (fh *FileHandler) BackfillThumbnails(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	summary, err := fh.backfill.Run(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, c.Query("force") == "true")
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "backfill_failed", err)
		return
	}
	response.RespondOK(c, summary)
}

func (fh *FileHandler) GenerateThumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	file, err := fh.fileService.Get(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	url, err := fh.thumbnails.Generate(dbc, file, c.Query("force") == "true")
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "thumbnail_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"thumbnail_url": url})
}
