package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codecraft/backend/internal/features/assist/domain"
)

func TestClientsRequireKeys(t *testing.T) {
	_, err := NewVisionClient(VisionConfig{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	_, err = NewGeminiEnhancer(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestVisionClientSendsImagePart(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" A pricing page "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewVisionClient(VisionConfig{APIKey: "key", Model: "vision", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := c.Analyze(context.Background(), "describe", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "A pricing page", got)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "vision", req.Get("model").String())
	assert.Equal(t, int64(1000), req.Get("max_tokens").Int())
	assert.Equal(t, "text", req.Get("messages.0.content.0.type").String())
	assert.Equal(t, "describe", req.Get("messages.0.content.0.text").String())
	assert.Equal(t, "data:image/png;base64,AAAA", req.Get("messages.0.content.1.image_url.url").String())
}

func TestVisionClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewVisionClient(VisionConfig{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Analyze(context.Background(), "describe", "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, domain.ErrEmptyAnalysis)
}

func TestGeminiEnhancer(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  Build a todo app with filters  "}]}}]}`))
	}))
	defer srv.Close()

	e, err := NewGeminiEnhancer(context.Background(), GeminiConfig{APIKey: "key", Model: "gemini-1.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := e.Enhance(context.Background(), "rewrite it", "todo")
	require.NoError(t, err)
	assert.Equal(t, "Build a todo app with filters", got)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "rewrite it", req.Get("systemInstruction.parts.0.text").String())
	assert.Equal(t, "User prompt: todo", req.Get("contents.0.parts.0.text").String())
}
