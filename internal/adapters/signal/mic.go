package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleMicStatus(cl *client, data []byte) {
	if cl.room == nil {
		return
	}

	type micPayload struct {
		Type  string `json:"type"`
		Muted bool   `json:"muted"`
	}
	var p micPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad mic payload")
		return
	}

	if !cl.room.SetMuted(cl.meta.Name, p.Muted) {
		// Entry is seeded at join time; a miss means the session raced its
		// own removal. Nothing to broadcast.
		return
	}

	ctl.broadcast(cl.room, cl.sid, struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Muted bool   `json:"muted"`
	}{
		Type:  "mic-status",
		Name:  cl.meta.Name,
		Muted: p.Muted,
	})
}
