package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codecraft/backend/internal/features/assist/application"
	"codecraft/backend/internal/features/assist/domain"
)

// AssistHandler handles prompt assistance requests.
type AssistHandler struct {
	service application.AssistService
}

// NewAssistHandler creates a new AssistHandler.
func NewAssistHandler(service application.AssistService) *AssistHandler {
	return &AssistHandler{service: service}
}

type enhanceRequest struct {
	Prompt *string `json:"prompt"`
}

// EnhancePromptHandler handles POST /api/enhancePrompt.
func (h *AssistHandler) EnhancePromptHandler(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if req.Prompt == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "prompt is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enhanced": h.service.EnhancePrompt(c.Request.Context(), *req.Prompt)})
}

// AnalyzeImageHandler handles POST /api/analyzeImage.
func (h *AssistHandler) AnalyzeImageHandler(c *gin.Context) {
	var req domain.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	analysis, err := h.service.AnalyzeImage(c.Request.Context(), req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, domain.ErrNotConfigured) {
			msg = "Together AI API key not configured"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis, "success": true})
}
