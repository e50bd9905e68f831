package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/metrics"
)

// handleRelay forwards an opaque negotiation payload. With a target name it
// is delivered to that session only; without one it fans out to every other
// session in the room. A missing target drops the message: handled, logged,
// never surfaced to the sender.
func (ctl *Controller) handleRelay(cl *client, data []byte) {
	if cl.room == nil {
		return
	}

	type relayPayload struct {
		Type   string          `json:"type"`
		To     string          `json:"to,omitempty"`
		Signal json.RawMessage `json:"signal"`
	}
	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil || len(p.Signal) == 0 {
		log.Error().Err(err).Str("module", "signal").Msg("bad relay payload")
		return
	}

	out := struct {
		Type   string          `json:"type"`
		From   string          `json:"from"`
		Signal json.RawMessage `json:"signal"`
	}{
		Type:   "signal",
		From:   cl.meta.Name,
		Signal: p.Signal,
	}

	if p.To != "" {
		target, ok := cl.room.MemberByName(p.To)
		if !ok {
			log.Warn().Str("module", "signal").Str("room", string(cl.room.ID())).Str("to", p.To).Msg("relay target not found, dropped")
			return
		}
		ctl.sendJSON(target.Signal(), out)
		metrics.SignalsRelayed.Inc()
		return
	}

	ctl.broadcast(cl.room, cl.sid, out)
	metrics.SignalsRelayed.Inc()
}
