package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codecraft/backend/internal/features/generation/application"
	"codecraft/backend/internal/features/generation/domain"
)

// statusFor maps a generation error to an HTTP status.
func statusFor(err error) int {
	var (
		validation  *domain.ValidationError
		unsupported *domain.UnsupportedModelError
		missing     *domain.MissingCredentialError
		upstream    *domain.UpstreamError
		transport   *domain.TransportError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPromptTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, application.ErrNothingToFix):
		return http.StatusConflict
	case errors.As(err, &missing):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream), errors.As(err, &transport), errors.Is(err, domain.ErrEmptyGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
