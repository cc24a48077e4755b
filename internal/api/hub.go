package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"core-launchpad/internal/discovery"
	"core-launchpad/internal/observability"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub streams tracker snapshots to websocket clients.
type Hub struct {
	tracker *discovery.Tracker
	logger  *zap.Logger
	clients atomic.Int64
}

// NewHub creates a Hub over tracker.
func NewHub(tracker *discovery.Tracker, logger *zap.Logger) *Hub {
	return &Hub{tracker: tracker, logger: logger.Named("ws")}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

func (s *Server) serveWS(c *gin.Context) {
	if s.hub == nil {
		respondError(c, http.StatusServiceUnavailable, errUnavailable.Error())
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	s.hub.Serve(conn)
}

// Serve sends the current snapshot, then every published one, until the
// client goes away. It closes conn.
func (h *Hub) Serve(conn *websocket.Conn) {
	defer conn.Close()

	updates, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	observability.SetWebsocketSubscribers(int(h.clients.Add(1)))
	defer func() {
		observability.SetWebsocketSubscribers(int(h.clients.Add(-1)))
	}()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	if h.tracker.Ready() {
		if err := h.write(conn, h.tracker.Snapshot()); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case snap := <-updates:
			if err := h.write(conn, snap); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed and a
// close is noticed.
func (h *Hub) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, snap discovery.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(newSnapshotView(snap)); err != nil {
		h.logger.Debug("websocket write", zap.Error(err))
		return err
	}
	return nil
}
