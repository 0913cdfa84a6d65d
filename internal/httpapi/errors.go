package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/auth"
	"adminBackend/internal/logger"
	"adminBackend/internal/payments"
	"adminBackend/internal/support"
	"adminBackend/internal/telegram"
	"adminBackend/repository"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, payments.ErrInvalidRequest),
		errors.Is(err, support.ErrInvalidRequest),
		errors.Is(err, telegram.ErrInvalidGrant):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, telegram.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError maps err to a status code. Internal errors are logged and
// answered with a generic message.
func abortWithError(c *gin.Context, log logger.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error(fmt.Sprintf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf(format, args...)})
}
