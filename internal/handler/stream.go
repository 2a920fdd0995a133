package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/notifier"
)

const connectedEvent = "connected"

// streamEvents handles GET /stream
// @Summary Subscribe to event changes
// @Description Server-sent events stream of eventCreated and eventDeleted notifications
// @Tags stream
// @Produce text/event-stream
// @Success 200 {object} notifier.Message
// @Failure 503 {object} dto.ErrorResponse
// @Router /stream [get]
func (h *Handler) streamEvents(c *gin.Context) {
	sub, err := h.hub.Subscribe()
	if err != nil {
		if errors.Is(err, notifier.ErrHubClosed) {
			h.respondError(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, err)
			return
		}
		h.log.Error("Failed to subscribe stream client", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, err)
		return
	}
	defer h.hub.Unsubscribe(sub.ID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(connectedEvent, gin.H{"clientId": sub.ID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.options.StreamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				// Hub shut down or dropped this client as too slow.
				return false
			}
			c.SSEvent(msg.Type, msg.Payload)
			return true
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return false
			}
			return true
		}
	})

	h.log.Debug("Stream client disconnected", zap.String("client_id", sub.ID))
}
