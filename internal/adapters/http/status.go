package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelex/watchparty/internal/app"
)

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusHandler is read-only diagnostics; it never mutates room state.
func statusHandler(store *app.RoomStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := store.Snapshot()
		streams := 0
		for _, r := range rooms {
			streams += r.OpenStreams
		}
		c.JSON(http.StatusOK, gin.H{
			"rooms":        len(rooms),
			"sessions":     store.SessionCount(),
			"open_streams": streams,
			"room_list":    rooms,
		})
	}
}
