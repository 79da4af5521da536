package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/http/response"
	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/services"
)

// UploadHandler is the client-driven chunked upload surface: a browser slices
// the file itself and feeds parts through these endpoints.
type UploadHandler struct {
	log         *logger.Logger
	fileService services.FileService
	manager     *services.UploadManager
}

func NewUploadHandler(log *logger.Logger, fileService services.FileService, manager *services.UploadManager) *UploadHandler {
	return &UploadHandler{
		log:         log.With("handler", "UploadHandler"),
		fileService: fileService,
		manager:     manager,
	}
}

func (uh *UploadHandler) Begin(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	var req struct {
		Name        string `json:"name"`
		Folder      string `json:"folder"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	file, session, err := uh.fileService.BeginChunked(dbctx.Context{Ctx: c.Request.Context()}, services.UploadInput{
		OwnerID:      rd.UserID,
		OriginalName: req.Name,
		Folder:       req.Folder,
		ContentType:  req.ContentType,
		Size:         req.Size,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "begin_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"file":           file,
		"session_id":     session.ID,
		"chunk_size":     session.ChunkSize,
		"received_parts": session.ReceivedParts,
	})
}

func (uh *UploadHandler) PutPart(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	part, err := strconv.Atoi(c.Param("part"))
	if err != nil || part < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_part", fmt.Errorf("part must be a non-negative integer"))
		return
	}
	size := c.Request.ContentLength
	if size <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_part", fmt.Errorf("missing content length"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := uh.manager.PutPart(dbc, sessionID, part, size, c.Request.Body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "part_failed", err)
		return
	}
	received, total, _ := uh.manager.Progress(sessionID)
	response.RespondOK(c, gin.H{"received_bytes": received, "total_bytes": total})
}

func (uh *UploadHandler) Finish(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		FileID uuid.UUID `json:"file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	file, err := uh.fileService.FinishChunked(dbctx.Context{Ctx: c.Request.Context()}, sessionID, req.FileID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "finish_failed", err)
		return
	}
	response.RespondOK(c, file)
}

func (uh *UploadHandler) Abort(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		FileID uuid.UUID `json:"file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := uh.fileService.AbortChunked(dbctx.Context{Ctx: c.Request.Context()}, sessionID, req.FileID); err != nil {
		response.RespondError(c, http.StatusBadRequest, "abort_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (uh *UploadHandler) Progress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	received, total, ok := uh.manager.Progress(sessionID)
	if !ok {
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("session %s is not active", sessionID))
		return
	}
	response.RespondOK(c, gin.H{"received_bytes": received, "total_bytes": total})
}
