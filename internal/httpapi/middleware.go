package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"adminBackend/internal/auth"
	"adminBackend/internal/logger"
)

// RequestIDHeader carries the per-request id echoed back to callers.
const RequestIDHeader = "X-Request-Id"

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		c.Next()

		line := fmt.Sprintf("[HTTP] %s %s %d %s id=%s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond), id)
		if c.Writer.Status() >= 500 {
			log.Error(line)
			return
		}
		log.Info(line)
	}
}

// Authenticate validates the Bearer JWT and stores the principal in the
// request context. Missing or invalid tokens are rejected with 401.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized: " + err.Error()})
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RoleCheck is one of the auth.Require* helpers bound to a user lookup.
type RoleCheck func(ctx context.Context) (*auth.Principal, error)

// Require rejects callers failing check with 401 or 403.
func Require(check RoleCheck, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := check(c.Request.Context()); err != nil {
			abortWithError(c, log, err)
			return
		}
		c.Next()
	}
}

// Role checks used by the route table.
func adminOnly(users auth.UserLookup) RoleCheck {
	return func(ctx context.Context) (*auth.Principal, error) { return auth.RequireAdmin(ctx, users) }
}

func staff(users auth.UserLookup) RoleCheck {
	return func(ctx context.Context) (*auth.Principal, error) { return auth.RequireStaff(ctx, users) }
}

func serviceOrAdmin(users auth.UserLookup) RoleCheck {
	return func(ctx context.Context) (*auth.Principal, error) { return auth.RequireServiceOrAdmin(ctx, users) }
}

// actor names the caller in audit entries.
func actor(c *gin.Context) string {
	if p, ok := auth.FromContext(c.Request.Context()); ok {
		return p.Name
	}
	return "anonymous"
}
