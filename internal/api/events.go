package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/models"
	"github.com/justyntemme/shelf/internal/search"
)

const keepAliveInterval = 15 * time.Second

// StreamEvents pushes the results view to the client whenever the search
// state or the reading list changes. Only the latest view is kept per
// client, so slow readers skip intermediate states.
func (h *Handler) StreamEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	log := logger.For(c.Request.Context()).WithField("client_id", clientID)

	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	unsubSearch := h.widget.Search().Subscribe(func(search.State) { signal() })
	defer unsubSearch()
	unsubList := h.widget.ReadingList().Subscribe(func(models.ReadingList) { signal() })
	defer unsubList()

	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	c.SSEvent("connected", gin.H{"client_id": clientID})
	c.SSEvent("state", h.widget.Results())
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			c.SSEvent("state", h.widget.Results())
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().Unix()})
		}
		c.Writer.Flush()
	}
}
