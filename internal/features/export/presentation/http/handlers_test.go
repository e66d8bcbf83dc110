package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"codecraft/backend/internal/features/export/application"
	"codecraft/backend/internal/features/export/domain"
)

type stubDeployer struct{ err error }

func (s stubDeployer) Deploy(context.Context, string, []domain.File) (domain.Deployment, error) {
	if s.err != nil {
		return domain.Deployment{}, s.err
	}
	return domain.Deployment{URL: "https://x.vercel.app"}, nil
}

func deployRouter(opts application.ExportOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/deployToVercel", NewExportHandler(application.NewExportService(opts)).DeployHandler)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/deployToVercel", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestDeployHandler(t *testing.T) {
	r := deployRouter(application.ExportOptions{Deployer: stubDeployer{}})

	w := post(r, `{"files":{"src/App.tsx":"code"},"projectName":"demo"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"https://x.vercel.app"`)

	w = post(r, `{"files":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeployHandlerErrors(t *testing.T) {
	w := post(deployRouter(application.ExportOptions{}), `{"files":{"a":"b"}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	r := deployRouter(application.ExportOptions{Deployer: stubDeployer{err: &domain.DeployError{Status: 400, Body: "bad files"}}})
	w = post(r, `{"files":{"a":"b"}}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Vercel deploy failed: bad files")
}
