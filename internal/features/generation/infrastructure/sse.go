package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"codecraft/backend/internal/features/generation/domain"
)

const (
	doneSentinel     = "[DONE]"
	maxSSELineBytes  = 1 << 20
	maxErrorBodySize = 2048
)

// eventDecoder extracts text from one parsed SSE payload. done ends the stream.
type eventDecoder func(event gjson.Result) (text string, done bool, err error)

// sseStream reads server-sent events from a streaming HTTP body. Lines that are
// not data lines are ignored, and payloads that are not valid JSON are skipped
// without ending the stream.
type sseStream struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	decode   eventDecoder
	logger   zerolog.Logger
	finished bool
}

func newSSEStream(provider string, body io.ReadCloser, decode eventDecoder, logger zerolog.Logger) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineBytes)
	return &sseStream{provider: provider, body: body, scanner: scanner, decode: decode, logger: logger}
}

func (s *sseStream) Recv() (Fragment, error) {
	if s.finished {
		return Fragment{}, io.EOF
	}
	for s.scanner.Scan() {
		payload, ok := dataPayload(s.scanner.Text())
		if !ok {
			continue
		}
		if payload == doneSentinel {
			s.finished = true
			return Fragment{Done: true}, nil
		}
		if !gjson.Valid(payload) {
			s.logger.Debug().Str("payload", truncate(payload, 200)).Msg("skipping malformed stream event")
			continue
		}
		text, done, err := s.decode(gjson.Parse(payload))
		if err != nil {
			s.finished = true
			return Fragment{}, err
		}
		if done {
			s.finished = true
			return Fragment{Text: text, Done: true}, nil
		}
		if text == "" {
			continue
		}
		return Fragment{Text: text}, nil
	}
	s.finished = true
	if err := s.scanner.Err(); err != nil {
		return Fragment{}, &domain.TransportError{Provider: s.provider, Err: err}
	}
	return Fragment{}, io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}

// dataPayload returns the payload of a "data:" line, with or without the
// space after the colon.
func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := strings.TrimPrefix(line, "data:")
	payload = strings.TrimPrefix(payload, " ")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", false
	}
	return payload, true
}

// postStream sends a JSON body and returns the response of a 2xx reply.
// Other statuses become UpstreamError, failures to connect TransportError.
func postStream(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Provider: provider, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &domain.UpstreamError{Provider: provider, Status: resp.StatusCode, Body: upstreamMessage(raw)}
	}
	return resp, nil
}

// upstreamMessage prefers the provider's own error message over the raw body.
func upstreamMessage(raw []byte) string {
	for _, path := range []string{"error.message", "message", "error"} {
		if v := gjson.GetBytes(raw, path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(raw))
}

func chatMessages(system string, msgs []domain.Message) []map[string]string {
	out := make([]map[string]string, 0, len(msgs)+1)
	if system != "" {
		out = append(out, map[string]string{"role": "system", "content": system})
	}
	for _, m := range msgs {
		out = append(out, map[string]string{"role": string(m.Role), "content": m.Content})
	}
	return out
}

func streamEventError(provider string, event gjson.Result) error {
	msg := event.Get("error.message").String()
	if msg == "" {
		msg = event.Get("message").String()
	}
	if msg == "" {
		msg = event.Raw
	}
	return &domain.UpstreamError{Provider: provider, Body: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var errNoEndpoint = errors.New("endpoint is required")
