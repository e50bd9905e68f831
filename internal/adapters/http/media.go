package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/domain"
	"github.com/avelex/watchparty/internal/metrics"
)

var errBadRange = errors.New("unsatisfiable range")

// movieHandler serves the room's asset with byte-range semantics. The read
// handle is registered in the room's stream set before any bytes go out,
// so playback teardown can force it closed; whichever of end-of-data, I/O
// error or client abort comes first closes it exactly once.
func movieHandler(store *app.RoomStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("roomId"))
		room, ok := store.Get(roomID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		ps, ok := room.PlaybackSnapshot()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no video for room"})
			return
		}

		f, err := os.Open(ps.AssetPath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video file missing"})
			return
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stat failed"})
			return
		}
		size := info.Size()

		handle := room.Streams().Track(f)
		defer handle.Close()
		metrics.StreamsOpen.Inc()
		defer metrics.StreamsOpen.Dec()

		contentType := ps.ContentType
		if contentType == "" {
			contentType = "video/mp4"
		}
		c.Header("Accept-Ranges", "bytes")
		c.Header("Content-Type", contentType)

		rangeHeader := c.GetHeader("Range")
		if rangeHeader == "" {
			c.Header("Content-Length", strconv.FormatInt(size, 10))
			c.Status(http.StatusOK)
			n, err := io.Copy(c.Writer, handle)
			metrics.BytesStreamed.Add(float64(n))
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("full stream terminated")
			}
			return
		}

		start, end, err := parseRange(rangeHeader, size)
		if err != nil {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}

		chunk := end - start + 1
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		c.Header("Content-Length", strconv.FormatInt(chunk, 10))
		c.Status(http.StatusPartialContent)

		n, err := io.CopyN(c.Writer, handle, chunk)
		metrics.BytesStreamed.Add(float64(n))
		if err != nil {
			// Client abort, I/O failure or a forced CloseAll; the deferred
			// Close deregisters the handle either way.
			log.Debug().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Int64("sent", n).Msg("partial stream terminated")
		}
	}
}

// parseRange understands the single-span form "bytes=start-end" with an
// optional end, which is what media elements send. End is clamped to the
// asset size.
func parseRange(h string, size int64) (start, end int64, err error) {
	const prefix = "bytes="
	if !strings.HasPrefix(h, prefix) {
		return 0, 0, errBadRange
	}
	parts := strings.SplitN(strings.TrimPrefix(h, prefix), "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return 0, 0, errBadRange
	}
	start, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, errBadRange
	}
	end = size - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil || end < start {
			return 0, 0, errBadRange
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return start, end, nil
}
