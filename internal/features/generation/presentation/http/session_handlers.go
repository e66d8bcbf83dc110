package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	exportapp "codecraft/backend/internal/features/export/application"
	exportdomain "codecraft/backend/internal/features/export/domain"
	exporthttp "codecraft/backend/internal/features/export/presentation/http"
	"codecraft/backend/internal/features/generation/application"
	"codecraft/backend/internal/features/generation/domain"
)

// SessionHandler exposes the generation sessions.
type SessionHandler struct {
	registry *application.SessionRegistry
	exporter exportapp.ExportService
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler. allowOrigin decides which
// browser origins may open the event socket; nil allows any.
func NewSessionHandler(registry *application.SessionRegistry, exporter exportapp.ExportService, allowOrigin func(origin string) bool, logger zerolog.Logger) *SessionHandler {
	if allowOrigin == nil {
		allowOrigin = func(string) bool { return true }
	}
	return &SessionHandler{
		registry: registry,
		exporter: exporter,
		logger:   logger,
		upgrader: newUpgrader(allowOrigin),
	}
}

// Register mounts the session routes on group. generate runs in front of the
// routes that start a generation.
func (h *SessionHandler) Register(group *gin.RouterGroup, generate ...gin.HandlerFunc) {
	starts := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc(nil), generate...), handler)
	}
	group.POST("", h.CreateSessionHandler)
	group.GET("/:id", h.GetSessionHandler)
	group.DELETE("/:id", h.DeleteSessionHandler)
	group.POST("/:id/submit", starts(h.SubmitHandler)...)
	group.POST("/:id/fix", starts(h.FixHandler)...)
	group.POST("/:id/retry", starts(h.RetryHandler)...)
	group.POST("/:id/followup", starts(h.FollowUpHandler)...)
	group.POST("/:id/cancel", h.CancelHandler)
	group.POST("/:id/preview", h.PreviewHandler)
	group.GET("/:id/ws", h.EventsHandler)
	group.GET("/:id/download", h.DownloadHandler)
	group.POST("/:id/share", h.ShareHandler)
	group.POST("/:id/deploy", h.DeployHandler)
	group.GET("/:id/projects", h.ListProjectsHandler)
	group.DELETE("/:id/projects/:projectId", h.DeleteProjectHandler)
}

type createSessionRequest struct {
	Model string `json:"model"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type fixRequest struct {
	Error string `json:"error"`
}

type exportRequest struct {
	ProjectName string `json:"projectName"`
	Target      string `json:"target"`
}

// CreateSessionHandler handles POST /api/sessions.
func (h *SessionHandler) CreateSessionHandler(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	s, err := h.registry.Create(strings.TrimSpace(req.Model))
	if err != nil {
		writeError(c, err)
		return
	}
	st := s.Orchestrator().State()
	c.JSON(http.StatusCreated, gin.H{"id": s.ID, "status": st.Status, "model": st.Model})
}

// GetSessionHandler handles GET /api/sessions/:id.
func (h *SessionHandler) GetSessionHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSessionHandler handles DELETE /api/sessions/:id.
func (h *SessionHandler) DeleteSessionHandler(c *gin.Context) {
	if !h.registry.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitHandler handles POST /api/sessions/:id/submit.
func (h *SessionHandler) SubmitHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.accepted(c, s, s.Submit(strings.TrimSpace(req.Model), req.Prompt))
}

// FixHandler handles POST /api/sessions/:id/fix. Without an error in the
// body the last preview failure is used.
func (h *SessionHandler) FixHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req fixRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.accepted(c, s, s.Fix(strings.TrimSpace(req.Error)))
}

// RetryHandler handles POST /api/sessions/:id/retry.
func (h *SessionHandler) RetryHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.accepted(c, s, s.Retry())
}

// FollowUpHandler handles POST /api/sessions/:id/followup.
func (h *SessionHandler) FollowUpHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.accepted(c, s, s.FollowUp(req.Prompt))
}

// CancelHandler handles POST /api/sessions/:id/cancel.
func (h *SessionHandler) CancelHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"id": s.ID, "status": s.Orchestrator().Status()})
}

// PreviewHandler handles POST /api/sessions/:id/preview.
func (h *SessionHandler) PreviewHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	res, err := s.Preview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to preview yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// DownloadHandler handles GET /api/sessions/:id/download?target=web|mobile.
func (h *SessionHandler) DownloadHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	target, err := exportdomain.ParseTarget(c.Query("target"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	code, name, ok := exportable(c, s, c.Query("name"))
	if !ok {
		return
	}
	filename, data, err := h.exporter.Archive(name, code, target)
	if err != nil {
		exporthttp.WriteError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// ShareHandler handles POST /api/sessions/:id/share.
func (h *SessionHandler) ShareHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	req, ok := bindExport(c)
	if !ok {
		return
	}
	target, err := exportdomain.ParseTarget(req.Target)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	code, name, ok := exportable(c, s, req.ProjectName)
	if !ok {
		return
	}
	link, err := h.exporter.Share(c.Request.Context(), name, code, target)
	if err != nil {
		exporthttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// DeployHandler handles POST /api/sessions/:id/deploy.
func (h *SessionHandler) DeployHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	req, ok := bindExport(c)
	if !ok {
		return
	}
	code, _, ok := exportable(c, s, "")
	if !ok {
		return
	}
	d, err := h.exporter.Deploy(c.Request.Context(), req.ProjectName, code)
	if err != nil {
		exporthttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListProjectsHandler handles GET /api/sessions/:id/projects.
func (h *SessionHandler) ListProjectsHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": s.Projects().List()})
}

// DeleteProjectHandler handles DELETE /api/sessions/:id/projects/:projectId.
func (h *SessionHandler) DeleteProjectHandler(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !s.Projects().Delete(c.Param("projectId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) session(c *gin.Context) (*application.Session, bool) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) accepted(c *gin.Context, s *application.Session, err error) {
	if err != nil {
		if !errors.Is(err, domain.ErrBusy) {
			h.logger.Debug().Err(err).Str("session_id", s.ID).Msg("transition rejected")
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": s.ID, "status": s.Orchestrator().Status()})
}

func bindExport(c *gin.Context) (exportRequest, bool) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return req, false
		}
	}
	return req, true
}

// exportable returns the current final artifact and a project name, which
// defaults to the session prompt.
func exportable(c *gin.Context, s *application.Session, name string) (string, string, bool) {
	art := s.Orchestrator().Artifact()
	if !art.Final || art.Code == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no completed generation to export"})
		return "", "", false
	}
	if strings.TrimSpace(name) == "" {
		name = s.Orchestrator().State().Prompt
	}
	return art.Code, name, true
}
