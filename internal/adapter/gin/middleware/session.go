package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userboard-api/internal/adapter/db/session"
	"userboard-api/pkg/logger"
)

const sessionKey = "store_session"

// SessionOpener opens a store session for one request.
type SessionOpener interface {
	Open(ctx context.Context) (*session.Session, error)
}

// Session opens a store session before the handler runs and releases it once
// the handler returns, whether it succeeded, failed or panicked.
func Session(opener SessionOpener, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sess, err := opener.Open(ctx)
		if err != nil {
			logger.WithContext(ctx, log).Error("failed to open store session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "An internal error occurred",
			})
			return
		}
		defer func() {
			if err := sess.Close(); err != nil {
				logger.WithContext(ctx, log).Warn("failed to close store session", zap.Error(err))
			}
		}()

		SetSession(c, sess)
		c.Next()
	}
}

// SetSession attaches sess to the request.
func SetSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionKey, sess)
}

// GetSession returns the store session opened for this request.
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
