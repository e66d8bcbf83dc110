package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codecraft/backend/internal/features/export/application"
	"codecraft/backend/internal/features/export/domain"
)

// ExportHandler handles deployments of explicit file sets.
type ExportHandler struct {
	service application.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service application.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

type deployRequest struct {
	Files       map[string]string `json:"files"`
	ProjectName string            `json:"projectName"`
}

// DeployHandler handles POST /api/deployToVercel.
func (h *ExportHandler) DeployHandler(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing files"})
		return
	}
	d, err := h.service.DeployFiles(c.Request.Context(), req.ProjectName, req.Files)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": d.URL, "id": d.ID})
}

// WriteError maps an export failure to a response.
func WriteError(c *gin.Context, err error) {
	var deployErr *domain.DeployError
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.As(err, &deployErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Vercel deploy failed: " + deployErr.Body, "status": deployErr.Status})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
