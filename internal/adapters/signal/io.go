package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.pingPeriod())
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) pingPeriod() time.Duration {
	if ctl.PingPeriod > 0 {
		return ctl.PingPeriod
	}
	return 54 * time.Second
}

func (ctl *Controller) readPump(ctx context.Context, cl *client, ws *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump closing")
		ws.Close()
		ctl.disconnect(cl)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := ws.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(cl, data)
		}
	}
}

func (ctl *Controller) dispatch(cl *client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(cl, data)
	case "signal":
		ctl.handleRelay(cl, data)
	case "mic-status":
		ctl.handleMicStatus(cl, data)
	case "movie-play":
		ctl.handleMovieControl(cl, data, "movie-play")
	case "movie-pause":
		ctl.handleMovieControl(cl, data, "movie-pause")
	case "movie-seek":
		ctl.handleMovieControl(cl, data, "movie-seek")
	case "request-video-state":
		ctl.handleVideoStateRequest(cl)
	case "stop-movie-party":
		ctl.handleStopMovieParty(cl)
	case "ping":
		ctl.handlePing(cl.conn)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(cl.conn, "unknown_type")
	}
}

func (ctl *Controller) handlePing(conn core.SignalConnection) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c core.SignalConnection, kind string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": kind,
	})
}
