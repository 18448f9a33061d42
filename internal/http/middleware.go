package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	identityKey     = "identityUserID"
)

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

func (h *Handler) log(c *gin.Context) *logrus.Entry {
	return h.logger.WithField("request_id", c.GetString(requestIDKey))
}

// ensureSchema retries table creation left undone at startup. Failures are
// logged and the request proceeds; the store reports its own errors.
func (h *Handler) ensureSchema() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.schema != nil {
			if err := h.schema.Ensure(c.Request.Context()); err != nil {
				h.log(c).WithError(err).Warn("schema not ready")
			}
		}
		c.Next()
	}
}

// identify verifies the bearer token when token enforcement is on and
// records the caller's user id for authorize.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.requireToken {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Authentication required"))
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			h.log(c).WithError(err).Debug("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Invalid or expired token"))
			return
		}

		c.Set(identityKey, userID)
		c.Next()
	}
}

// authorize answers 403 and returns false when an identified caller acts on another user's data.
func (h *Handler) authorize(c *gin.Context, userID int64) bool {
	if !h.requireToken {
		return true
	}
	if c.GetInt64(identityKey) != userID {
		c.JSON(http.StatusForbidden, errorBody("Access denied"))
		return false
	}
	return true
}
