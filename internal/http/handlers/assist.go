package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evarahealth/clinic-backend/internal/http/response"
	"github.com/evarahealth/clinic-backend/internal/services"
)

type AssistHandler struct {
	assistService services.AssistService
}

func NewAssistHandler(assistService services.AssistService) *AssistHandler {
	return &AssistHandler{assistService: assistService}
}

func (ah *AssistHandler) Actions(c *gin.Context) {
	response.RespondOK(c, gin.H{"actions": ah.assistService.Actions()})
}

func (ah *AssistHandler) Run(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
		Topic  string `json:"topic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.assistService.Run(c.Request.Context(), req.Action, req.Topic)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "assist_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}
