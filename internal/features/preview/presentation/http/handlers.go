package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codecraft/backend/internal/features/preview/domain"
)

const maxPreviewBytes = 512 * 1024

// Renderer renders code for preview.
type Renderer interface {
	Render(ctx context.Context, code string) domain.Result
}

// PreviewHandler renders arbitrary component code.
type PreviewHandler struct {
	renderer Renderer
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(renderer Renderer) *PreviewHandler {
	return &PreviewHandler{renderer: renderer}
}

type previewRequest struct {
	Code string `json:"code"`
}

// RenderHandler handles POST /api/preview. Render failures are reported in
// the body with status 200.
func (h *PreviewHandler) RenderHandler(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "code is required"})
		return
	}
	if len(req.Code) > maxPreviewBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "code is too large to preview"})
		return
	}
	c.JSON(http.StatusOK, h.renderer.Render(c.Request.Context(), req.Code))
}
