package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketadmin/internal/domain"
	"marketadmin/internal/http/middleware"
	"marketadmin/internal/listing"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message, field string) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		Field:     field,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Upstream
// rejections keep the server's message; transport failures only say what
// failed.
func RespondDomainError(c *gin.Context, err error) {
	var ve domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), ve.Field)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), "")
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), "")
	case errors.Is(err, listing.ErrClosed):
		respondError(c, http.StatusConflict, "screen_closed", "screen was closed", "")
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), "")
	case domain.IsApplication(err):
		respondError(c, http.StatusUnprocessableEntity, "rejected", err.Error(), "")
	case domain.IsTransport(err):
		respondError(c, http.StatusBadGateway, "upstream_error", err.Error(), "")
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", "")
	}
}
