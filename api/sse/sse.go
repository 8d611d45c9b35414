// Package sse streams domain events to monitoring clients over
// Server-Sent Events. Browsers cannot set headers on EventSource, so
// the token rides in a query parameter instead of the Authorization
// header.
package sse

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/middleware"
)

type Handler struct {
	ps     cache.PubSub
	cache  cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

func NewHandler(ps cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{ps: ps, cache: c, sec: sec, logger: logger}
}

// Stream subscribes the client to the event channel and forwards
// messages until the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := middleware.ParseToken(token, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	exists, err := h.cache.Exists(c.Request.Context(), "session:"+token)
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	msgs, cancel, err := h.ps.Subscribe(c.Request.Context(), events.Channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer cancel()

	h.logger.Info("sse client connected", zap.Int64("account_id", claims.AccountID))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Push the headers out so the client sees the stream open before
	// the first event arrives.
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.SSEvent("message", msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Info("sse client disconnected", zap.Int64("account_id", claims.AccountID))
}
