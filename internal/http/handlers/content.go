package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos/content"
	"github.com/evarahealth/clinic-backend/internal/http/response"
	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/services"
)

type ContentHandler struct {
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func (ch *ContentHandler) Catalog(c *gin.Context) {
	response.RespondOK(c, ch.contentService.Catalog())
}

func (ch *ContentHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	var req services.CreateContentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.OwnerID = rd.UserID
	row, err := ch.contentService.Create(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	response.RespondOK(c, row)
}

func (ch *ContentHandler) List(c *gin.Context) {
	filter := content.ListFilter{
		Pillar:        c.Query("pillar"),
		Subsection:    c.Query("subsection"),
		ContentType:   c.Query("content_type"),
		PublishedOnly: c.Query("published") == "true",
	}
	rows, err := ch.contentService.List(dbctx.Context{Ctx: c.Request.Context()}, filter)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"content": rows})
}

func (ch *ContentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	row, err := ch.contentService.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondOK(c, row)
}

func (ch *ContentHandler) Update(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req services.CreateContentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.OwnerID = rd.UserID
	row, err := ch.contentService.Update(dbctx.Context{Ctx: c.Request.Context()}, id, req)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	response.RespondOK(c, row)
}

func (ch *ContentHandler) SetPublished(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ch.contentService.SetPublished(dbctx.Context{Ctx: c.Request.Context()}, id, req.Published); err != nil {
		response.RespondError(c, http.StatusBadRequest, "publish_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ch *ContentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.contentService.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
