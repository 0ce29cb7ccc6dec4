package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/blogsphere/api"
	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "internal server error"

var errInvalidBody = domain.NewValidationError("body", "invalid request body")

// statusFor maps a domain error to its HTTP status and client-safe message
func statusFor(err error) (int, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "you are not allowed to modify this resource"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "image is too large"
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.Message{Message: message})
}
