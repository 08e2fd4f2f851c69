// Package signal is the WebSocket transport adapter: it upgrades HTTP
// requests, owns one connection wrapper per client and feeds decoded
// messages into the relay engine. The engine only ever sees connection
// ids and the TrySend interface, never the websocket itself.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/promptcast/promptcast/internal/config"
	"github.com/promptcast/promptcast/internal/core"
	"github.com/promptcast/promptcast/internal/relay"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Engine *relay.Engine
	Cfg    *config.Config
}

func NewController(engine *relay.Engine, cfg *config.Config) *Controller {
	return &Controller{Engine: engine, Cfg: cfg}
}

// wsConn is the adapter-owned connection wrapper. Outbound frames go
// through a buffered channel drained by the write pump; a full channel
// means the peer is too slow and the frame is dropped.
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSync upgrades the request and runs the connection's pump pair.
// The connection id stays stable for the websocket's lifetime.
func (ctl *Controller) HandleSync(ctx context.Context, c *gin.Context) {
	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("ct", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctl.Engine.Register(id, conn)
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
