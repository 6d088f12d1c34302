// Package ws exposes the realtime hub over websocket connections.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fleetops/dispatchd/core/events"
	"github.com/fleetops/dispatchd/core/logger"
	"github.com/fleetops/dispatchd/core/realtime"
)

// DefaultWriteTimeout bounds one send so a slow client cannot stall a
// broadcast sweep.
const DefaultWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The service assumes a trusted single actor in this phase.
	CheckOrigin: func(*http.Request) bool { return true },
}

// subscriber adapts one websocket connection to the hub. The mutex
// serializes writes: gorilla connections allow one concurrent writer.
type subscriber struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (s *subscriber) Send(ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	return s.conn.WriteJSON(ev)
}

// NewHandler upgrades requests on /ws, registers the connection with the
// hub and discards inbound traffic (clients may send keep-alive pings).
// Termination by either side deregisters the subscriber.
func NewHandler(hub *realtime.Hub, writeTimeout time.Duration, log logger.Logger) http.Handler {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade: %v", err)
			return
		}
		sub := &subscriber{conn: conn, timeout: writeTimeout}
		hub.Connect(sub)
		defer func() {
			hub.Disconnect(sub)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
