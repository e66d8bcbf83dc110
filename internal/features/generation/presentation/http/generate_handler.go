package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/generation/application"
	"codecraft/backend/internal/features/generation/domain"
)

// GenerateHandler streams raw model output for a conversation.
type GenerateHandler struct {
	service application.GenerationService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(service application.GenerationService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

// GenerateCodeHandler handles POST /api/generateCode. The response is the
// unsanitized model output as chunked text/plain. Errors found before the
// first fragment get a JSON body and a mapped status; errors after it end the
// stream early.
func (h *GenerateHandler) GenerateCodeHandler(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	var req domain.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		logger.Warn().Err(err).Str("model", req.Model).Msg("generation rejected")
		writeError(c, err)
		return
	}
	defer stream.Close()

	first, err := stream.Recv()
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Warn().Err(err).Str("model", req.Model).Msg("generation failed before first fragment")
		writeError(c, err)
		return
	}
	ended := err != nil || first.Done

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	if first.Text != "" {
		_, _ = c.Writer.WriteString(first.Text)
	}
	c.Writer.Flush()
	if ended {
		return
	}

	bytes := len(first.Text)
	c.Stream(func(w io.Writer) bool {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			logger.Warn().Err(err).Str("model", req.Model).Int("bytes", bytes).Msg("generation stream interrupted")
			return false
		}
		if frag.Text != "" {
			n, werr := io.WriteString(w, frag.Text)
			bytes += n
			if werr != nil {
				return false
			}
		}
		return !frag.Done
	})
	logger.Debug().Str("model", req.Model).Int("bytes", bytes).Msg("generation streamed")
}
