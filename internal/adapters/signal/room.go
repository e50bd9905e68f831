package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
)

func (ctl *Controller) handleJoin(cl *client, data []byte) {
	if cl.room != nil {
		ctl.sendError(cl.conn, "already_joined")
		return
	}

	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		Name   string `json:"name"`
		IsHost bool   `json:"isHost"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(cl.conn, "bad_payload")
		return
	}

	meta, err := domain.NewSession(cl.sid, p.Name, domain.RoomID(p.RoomID), p.IsHost)
	if err != nil {
		ctl.sendError(cl.conn, "invalid_name")
		return
	}

	room, err := ctl.Store.Join(core.NewMemberSession(meta, cl.conn))
	if err != nil {
		if errors.Is(err, core.ErrNameTaken) {
			ctl.sendError(cl.conn, "name_taken")
			return
		}
		ctl.sendError(cl.conn, "join_failed")
		return
	}
	cl.meta = meta
	cl.room = room
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Str("room", p.RoomID).Str("name", p.Name).Msg("join")

	// Replay: one existing-peer notice per present session, in join order,
	// before anyone hears about the newcomer.
	for _, ms := range room.Members() {
		if ms.Meta().ID == cl.sid {
			continue
		}
		ctl.sendJSON(cl.conn, struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}{
			Type: "existing-peer",
			Name: ms.Meta().Name,
		})
	}

	ctl.broadcast(room, cl.sid, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{
		Type: "new-peer",
		Name: meta.Name,
	})

	// Mic table replay, excluding the newcomer's own fresh entry.
	for _, entry := range room.MicSnapshot() {
		if entry.Name == meta.Name {
			continue
		}
		ctl.sendJSON(cl.conn, struct {
			Type  string `json:"type"`
			Name  string `json:"name"`
			Muted bool   `json:"muted"`
		}{
			Type:  "mic-status",
			Name:  entry.Name,
			Muted: entry.Muted,
		})
	}

	// Late joiners get the playback clock pushed, not just on request.
	if state := ctl.Playback.Query(room.ID()); state.HasVideo {
		ctl.sendStateSync(cl.conn, state)
	}
}

// disconnect runs the leave cascade: membership (and mic entry) removal,
// peer-left broadcast, host playback teardown, room destruction.
func (ctl *Controller) disconnect(cl *client) {
	if cl.room == nil {
		return
	}
	room, meta := cl.room, cl.meta
	cl.room = nil
	cl.meta = nil

	destroyed := ctl.Store.Leave(room, meta.ID)
	log.Info().Str("module", "signal").Str("sid", string(meta.ID)).Str("room", string(room.ID())).Msg("leave")

	ctl.broadcast(room, meta.ID, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{
		Type: "peer-left",
		Name: meta.Name,
	})

	if old, ok := ctl.Playback.HostDisconnected(room, meta.Name); ok {
		ctl.broadcastEnded(room, old.HostName, app.StopReasonHostLeft)
	}

	if destroyed {
		ctl.Playback.TeardownRoom(room)
	}
}

func (ctl *Controller) broadcastEnded(room *core.Room, host, reason string) {
	ctl.broadcast(room, "", struct {
		Type   string `json:"type"`
		Host   string `json:"host"`
		Reason string `json:"reason"`
	}{
		Type:   "movie-party-ended",
		Host:   host,
		Reason: reason,
	})
}
