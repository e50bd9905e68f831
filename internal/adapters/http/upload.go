package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/adapters/signal"
	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/config"
	"github.com/avelex/watchparty/internal/domain"
)

// uploadHandler accepts one media file plus roomId/hostName, stores it
// under the asset directory and installs the room's playback state.
// Validation failures are client-visible and leave no state behind.
func uploadHandler(cfg *config.Config, store *app.RoomStore, playback *app.Playback, ctrl *signal.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadBytes)

		// Parse up front: gin's form accessors swallow body errors, and the
		// size ceiling must surface as 413, not a missing-field 400.
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			c.JSON(status, gin.H{"error": "invalid upload"})
			return
		}

		roomID := domain.RoomID(c.PostForm("roomId"))
		hostName := c.PostForm("hostName")
		if roomID == "" || hostName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing roomId or hostName"})
			return
		}

		room, ok := store.Get(roomID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}

		file, header, err := c.Request.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload"})
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "video/") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only video files are accepted"})
			return
		}

		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("upload dir")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		assetPath := filepath.Join(cfg.UploadDir, uuid.NewString()+filepath.Ext(header.Filename))
		dst, err := os.Create(assetPath)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("upload create")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			_ = os.Remove(assetPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		if err := dst.Close(); err != nil {
			_ = os.Remove(assetPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		st, err := playback.AssetReady(roomID, assetPath, header.Filename, contentType, hostName)
		if err != nil {
			_ = os.Remove(assetPath)
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}

		log.Info().Str("module", "adapters.http").Str("room", string(roomID)).Str("file", header.Filename).Str("host", hostName).Msg("video uploaded")
		ctrl.NotifyAssetReady(room, st)
		c.JSON(http.StatusOK, gin.H{"fileName": st.FileName, "host": st.HostName})
	}
}
