package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evarahealth/clinic-backend/internal/http/response"
	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/services"
)

type AssessmentHandler struct {
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

func (ah *AssessmentHandler) ListInstruments(c *gin.Context) {
	response.RespondOK(c, gin.H{"instruments": ah.assessmentService.Instruments()})
}

func (ah *AssessmentHandler) GetInstrument(c *gin.Context) {
	q, err := ah.assessmentService.Instrument(c.Param("key"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondOK(c, q)
}

func (ah *AssessmentHandler) Submit(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	var req services.SubmitAssessmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.UserID = rd.UserID
	req.Instrument = c.Param("key")
	row, result, err := ah.assessmentService.Submit(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "submit_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row, "result": result})
}

func (ah *AssessmentHandler) History(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	rows, err := ah.assessmentService.History(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, c.Param("key"))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": rows})
}
