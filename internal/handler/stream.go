package handler

import (
	"io"

	"github.com/gin-gonic/gin"
)

// streamEvents writes every value received on events as a server-sent event
// until the client goes away or events is closed.
func streamEvents[T any](c *gin.Context, name string, events <-chan T) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(name, ev)
			return true
		}
	})
}

// latest delivers v without blocking, replacing an undelivered older value.
func latest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
