// Package sse streams catalogue change notices to HTTP clients as
// server-sent events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/aggregate"
	"github.com/kasuganosora/filmorate/cache"
	mw "github.com/kasuganosora/filmorate/middleware"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub    cache.PubSub
	keepalive time.Duration
	logger    *zap.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{
		pubsub:    pubsub,
		keepalive: defaultKeepalive,
		logger:    logger,
		closing:   make(chan struct{}),
	}
}

// Close ends every open stream. Register it with http.Server.RegisterOnShutdown
// so Shutdown does not wait on idle subscribers.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// ServeSSE handles GET /events.
// Every film write or like change is delivered as a "change" event whose data
// is the JSON notice published by the aggregation engine.
func (h *Handler) ServeSSE(c *gin.Context) {
	ctx := c.Request.Context()
	msgCh, unsub, err := h.pubsub.Subscribe(ctx, aggregate.InvalidateChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed",
			zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: change\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-ctx.Done():
			return

		case <-h.closing:
			return
		}
	}
}
