package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"codecraft/backend/internal/features/assist/domain"
)

type stubService struct {
	analysis string
	err      error
}

func (s stubService) EnhancePrompt(_ context.Context, prompt string) string {
	return "better " + prompt
}

func (s stubService) AnalyzeImage(_ context.Context, _ domain.ImageRequest) (string, error) {
	return s.analysis, s.err
}

func router(svc stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAssistHandler(svc)
	r := gin.New()
	r.POST("/api/enhancePrompt", h.EnhancePromptHandler)
	r.POST("/api/analyzeImage", h.AnalyzeImageHandler)
	return r
}

func do(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEnhancePromptHandler(t *testing.T) {
	r := router(stubService{})

	w := do(r, "/api/enhancePrompt", `{"prompt":"todo"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enhanced":"better todo"}`, w.Body.String())

	w = do(r, "/api/enhancePrompt", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAnalyzeImageHandler(t *testing.T) {
	w := do(router(stubService{analysis: "a form"}), "/api/analyzeImage", `{"imageData":"data:image/png;base64,AA"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"analysis":"a form","success":true}`, w.Body.String())

	w = do(router(stubService{}), "/api/analyzeImage", `{"imageData":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router(stubService{err: domain.ErrNotConfigured}), "/api/analyzeImage", `{"imageData":"data:image/png;base64,AA"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Together AI API key not configured")

	w = do(router(stubService{err: domain.ErrEmptyAnalysis}), "/api/analyzeImage", `{"imageData":"data:image/png;base64,AA"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
