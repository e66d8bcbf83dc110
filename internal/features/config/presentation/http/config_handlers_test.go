package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"codecraft/backend/internal/config"
	"codecraft/backend/internal/features/config/application"
	"codecraft/backend/internal/features/config/domain"
)

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	providers := []domain.ProviderConfig{
		{ModelID: "a", Kind: "openai-sse", CredentialEnv: "A_KEY", Enabled: true},
		{ModelID: "b", Kind: "cohere-sse", CredentialEnv: "B_KEY", Enabled: true},
		{ModelID: "c", Kind: "cohere-sse", Enabled: false},
	}
	env := map[string]string{"A_KEY": "set"}
	h := NewAppConfigHandler(
		config.NewAppConfigService(filepath.Join(t.TempDir(), "app_config.json"), zerolog.Nop()),
		application.NewModelCatalogService(providers, func(k string) string { return env[k] }),
	)
	r := gin.New()
	r.GET("/api/models", h.ListModelsHandler)
	r.GET("/api/config/app", h.GetAppConfigHandler)
	r.POST("/api/config/app", h.SaveAppConfigHandler)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListModels(t *testing.T) {
	w := serve(newRouter(t), http.MethodGet, "/api/models", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"models":[
		{"id":"a","label":"a","kind":"openai-sse","available":true},
		{"id":"b","label":"b","kind":"cohere-sse","available":false}
	]}`, w.Body.String())
}

func TestSaveAndGetAppConfig(t *testing.T) {
	r := newRouter(t)

	w := serve(r, http.MethodPost, "/api/config/app", `{"max_prompt_length":42}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/api/config/app", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"max_prompt_length":42`)

	w = serve(r, http.MethodPost, "/api/config/app", `{"providers":[{"model_id":"x"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(r, http.MethodPost, "/api/config/app", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
