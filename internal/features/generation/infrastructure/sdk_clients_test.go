package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codecraft/backend/internal/features/generation/domain"
)

func sdkPrompt() Prompt {
	return Prompt{
		System: "be terse",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "make a counter"},
			{Role: domain.RoleAssistant, Content: "export default 1"},
			{Role: domain.RoleUser, Content: "add a reset"},
		},
		Temperature: 0.5,
		MaxTokens:   64,
	}
}

func TestOpenAIAdapterStreamsUntilFinishReason(t *testing.T) {
	var body []byte
	srv := sseServer(t, http.StatusOK, strings.Join([]string{
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"export "}}]}`,
		`data: {"id":"1","object":"chat.completion.chunk","choices":[]}`,
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"default"},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
		``,
	}, "\n\n"), func(r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
	})

	a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, srv.URL, "key"))
	require.NoError(t, err)
	stream, err := a.Stream(context.Background(), "gpt-test", sdkPrompt())
	require.NoError(t, err)
	defer stream.Close()

	frags, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []Fragment{{Text: "export "}, {Text: "default", Done: true}}, frags)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "gpt-test", req.Get("model").String())
	assert.True(t, req.Get("stream").Bool())
	assert.Equal(t, "system", req.Get("messages.0.role").String())
	assert.Equal(t, "assistant", req.Get("messages.2.role").String())
	assert.Equal(t, "add a reset", req.Get("messages.3.content").String())
}

func TestOpenAIAdapterEndsOnDone(t *testing.T) {
	srv := sseServer(t, http.StatusOK, strings.Join([]string{
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`data: [DONE]`,
		``,
	}, "\n\n"), nil)

	a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, srv.URL, "key"))
	require.NoError(t, err)
	stream, err := a.Stream(context.Background(), "gpt-test", sdkPrompt())
	require.NoError(t, err)
	defer stream.Close()

	frags, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []Fragment{{Text: "a"}}, frags)
}

func TestOpenAIAdapterMapsErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := sseServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`, nil)
		a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, srv.URL, "bad"))
		require.NoError(t, err)

		_, err = a.Stream(context.Background(), "gpt-test", sdkPrompt())
		var upstream *domain.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusUnauthorized, upstream.Status)
		assert.Equal(t, "invalid api key", upstream.Body)
	})

	t.Run("non json body", func(t *testing.T) {
		srv := sseServer(t, http.StatusBadGateway, "bad gateway", nil)
		a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, srv.URL, "key"))
		require.NoError(t, err)

		_, err = a.Stream(context.Background(), "gpt-test", sdkPrompt())
		var upstream *domain.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusBadGateway, upstream.Status)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, url, "key"))
		require.NoError(t, err)

		_, err = a.Stream(context.Background(), "gpt-test", sdkPrompt())
		var transport *domain.TransportError
		require.ErrorAs(t, err, &transport)
	})

	t.Run("missing key", func(t *testing.T) {
		a, err := NewOpenAIAdapter(adapterOpts(KindOpenAISDK, "", ""))
		require.NoError(t, err)

		_, err = a.Stream(context.Background(), "gpt-test", sdkPrompt())
		var missing *domain.MissingCredentialError
		require.ErrorAs(t, err, &missing)
	})
}

func TestGeminiAdapterStreamsCandidates(t *testing.T) {
	var body []byte
	srv := sseServer(t, http.StatusOK, strings.Join([]string{
		`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"export "}]}}]}`,
		`data: {"candidates":[{"content":{"role":"model","parts":[]}}]}`,
		`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"default"}]},"finishReason":"STOP"}]}`,
		``,
	}, "\n\n"), func(r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:streamGenerateContent")
		body, _ = io.ReadAll(r.Body)
	})

	a, err := NewGeminiAdapter(adapterOpts(KindGeminiSDK, srv.URL, "key"))
	require.NoError(t, err)
	stream, err := a.Stream(context.Background(), "gemini-test", sdkPrompt())
	require.NoError(t, err)
	defer stream.Close()

	frags, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []Fragment{{Text: "export "}, {Text: "default"}}, frags)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "be terse", req.Get("systemInstruction.parts.0.text").String())
	assert.Equal(t, "user", req.Get("contents.0.role").String())
	assert.Equal(t, "model", req.Get("contents.1.role").String())
	assert.Equal(t, "add a reset", req.Get("contents.2.parts.0.text").String())
	assert.Equal(t, int64(64), req.Get("generationConfig.maxOutputTokens").Int())
}

func TestGeminiAdapterMapsErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := sseServer(t, http.StatusUnauthorized, `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`, nil)
		a, err := NewGeminiAdapter(adapterOpts(KindGeminiSDK, srv.URL, "bad"))
		require.NoError(t, err)
		stream, err := a.Stream(context.Background(), "gemini-test", sdkPrompt())
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		var upstream *domain.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusUnauthorized, upstream.Status)
		assert.Equal(t, "API key not valid", upstream.Body)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		a, err := NewGeminiAdapter(adapterOpts(KindGeminiSDK, url, "key"))
		require.NoError(t, err)
		stream, err := a.Stream(context.Background(), "gemini-test", sdkPrompt())
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		var transport *domain.TransportError
		require.ErrorAs(t, err, &transport)
	})

	t.Run("missing key", func(t *testing.T) {
		a, err := NewGeminiAdapter(adapterOpts(KindGeminiSDK, "", ""))
		require.NoError(t, err)

		_, err = a.Stream(context.Background(), "gemini-test", sdkPrompt())
		var missing *domain.MissingCredentialError
		require.ErrorAs(t, err, &missing)
	})
}
