package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brindlehq/jobqueue/eventbus"
)

// writeWait bounds how long a single event write may take before the
// connection is considered dead.
const writeWait = 5 * time.Second

// pingInterval keeps intermediary proxies from closing an otherwise
// idle connection between events.
const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway bridges eventbus.Bus subscriptions onto WebSocket connections.
// It holds no job-domain state; it is fan-out only.
type Gateway struct {
	bus *eventbus.Bus
	log *slog.Logger
}

// New creates a Gateway pumping events from bus.
func New(bus *eventbus.Bus, log *slog.Logger) *Gateway {
	return &Gateway{bus: bus, log: log}
}

// ServeHTTP upgrades the request to a WebSocket connection and streams
// every Event published on g.bus to it, optionally scoped to a single
// tenant via the tenant_id query parameter. On write failure or
// connection loss, the subscription is released and the handler
// returns.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	tenantId := r.URL.Query().Get("tenant_id")
	sub := g.bus.Subscribe(func(ev eventbus.Event) bool {
		return tenantId == "" || ev.TenantId == tenantId
	})
	defer sub.Close()

	g.pump(conn, sub)
}

func (g *Gateway) pump(conn *websocket.Conn, sub *eventbus.Subscription) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	// Drain (and discard) client->server frames so ReadMessage notices
	// the connection closing; observers never send data we act on.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
