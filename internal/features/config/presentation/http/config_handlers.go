package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codecraft/backend/internal/config"
	"codecraft/backend/internal/features/config/application"
	"codecraft/backend/internal/features/config/domain"
)

// AppConfigHandler holds the app config and model catalog services.
type AppConfigHandler struct {
	appConfigService config.AppConfigService
	catalog          application.ModelCatalogService
}

// NewAppConfigHandler creates a new AppConfigHandler.
func NewAppConfigHandler(appConfigService config.AppConfigService, catalog application.ModelCatalogService) *AppConfigHandler {
	return &AppConfigHandler{
		appConfigService: appConfigService,
		catalog:          catalog,
	}
}

// GetAppConfigHandler handles fetching the application configuration.
func (h *AppConfigHandler) GetAppConfigHandler(c *gin.Context) {
	appConfig, err := h.appConfigService.LoadAppConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load app config: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, appConfig)
}

// SaveAppConfigHandler handles saving the application configuration.
func (h *AppConfigHandler) SaveAppConfigHandler(c *gin.Context) {
	var appConfig domain.AppConfig
	if err := c.ShouldBindJSON(&appConfig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appConfig.ApplyDefaults()
	if err := config.Validate(&appConfig); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.appConfigService.SaveAppConfig(&appConfig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save app config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "App config saved successfully. Restart the server to apply catalog changes."})
}

// ListModelsHandler returns the model catalog.
func (h *AppConfigHandler) ListModelsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.catalog.ListModels()})
}
