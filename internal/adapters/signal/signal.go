package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/app"
	"github.com/avelex/watchparty/internal/core"
	"github.com/avelex/watchparty/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller terminates signaling websockets and translates wire events
// into room-state operations.
type Controller struct {
	Store      *app.RoomStore
	Playback   *app.Playback
	PingPeriod time.Duration
}

func NewController(store *app.RoomStore, playback *app.Playback, pingPeriod time.Duration) *Controller {
	return &Controller{Store: store, Playback: playback, PingPeriod: pingPeriod}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// client is the per-connection state. All fields after construction are
// touched only from the connection's read pump, so no lock is needed.
type client struct {
	sid  domain.SessionID
	conn core.SignalConnection
	meta *domain.Session // nil until join
	room *core.Room      // nil until join
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	cl := &client{sid: sid, conn: conn}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, cl, conn)
	}()
}

// broadcast fans an event out to every room member except the given one.
// Pass an empty SessionID to reach everyone.
func (ctl *Controller) broadcast(room *core.Room, except domain.SessionID, v any) {
	for _, ms := range room.Members() {
		if ms.Meta().ID == except {
			continue
		}
		ctl.sendJSON(ms.Signal(), v)
	}
}
