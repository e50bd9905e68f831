package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
)

// handleMovieControl applies a host play/pause/seek delta and rebroadcasts
// it with the authoritative position and timestamp. Non-host requests are
// silent no-ops: no error, no state change, no broadcast.
func (ctl *Controller) handleMovieControl(cl *client, data []byte, kind string) {
	if cl.room == nil {
		return
	}

	type controlPayload struct {
		Type        string  `json:"type"`
		CurrentTime float64 `json:"currentTime"`
	}
	var p controlPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad movie control payload")
		return
	}

	var (
		st domain.PlaybackState
		ok bool
	)
	switch kind {
	case "movie-play":
		st, ok = ctl.Playback.Play(cl.room.ID(), cl.meta.Name, p.CurrentTime)
	case "movie-pause":
		st, ok = ctl.Playback.Pause(cl.room.ID(), cl.meta.Name, p.CurrentTime)
	case "movie-seek":
		st, ok = ctl.Playback.Seek(cl.room.ID(), cl.meta.Name, p.CurrentTime)
	}
	if !ok {
		return
	}

	ctl.broadcast(cl.room, cl.sid, struct {
		Type        string  `json:"type"`
		CurrentTime float64 `json:"currentTime"`
		Timestamp   int64   `json:"timestamp"`
	}{
		Type:        kind,
		CurrentTime: st.Position,
		Timestamp:   st.LastUpdate.UnixMilli(),
	})
}

func (ctl *Controller) handleVideoStateRequest(cl *client) {
	if cl.room == nil {
		return
	}
	ctl.sendStateSync(cl.conn, ctl.Playback.Query(cl.room.ID()))
}

func (ctl *Controller) sendStateSync(conn core.SignalConnection, state app.StateSync) {
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		app.StateSync
	}{
		Type:      "video-state-sync",
		StateSync: state,
	})
}

func (ctl *Controller) handleStopMovieParty(cl *client) {
	if cl.room == nil {
		return
	}
	old, ok := ctl.Playback.Stop(cl.room.ID(), cl.meta.Name)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("room", string(cl.room.ID())).Str("host", old.HostName).Msg("movie party stopped")
	ctl.broadcastEnded(cl.room, old.HostName, app.StopReasonStopped)
}

// NotifyAssetReady pushes the asset-available notice after an upload.
func (ctl *Controller) NotifyAssetReady(room *core.Room, st domain.PlaybackState) {
	ctl.broadcast(room, "", struct {
		Type     string `json:"type"`
		FileName string `json:"fileName"`
		Host     string `json:"host"`
	}{
		Type:     "movie-ready",
		FileName: st.FileName,
		Host:     st.HostName,
	})
}
