// Package fanout streams scan events to WebSocket subscribers.
package fanout

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tobikemp/fhscan/internal/events"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

const (
	clientSendBuf = 256
	writeDeadline = 5 * time.Second
	pongWait      = 30 * time.Second
	pingInterval  = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type scanClient struct {
	league string // empty = all leagues
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

// Server fans out bus events to connected WebSocket clients. Clients may
// scope themselves to one league with ?league=; scan lifecycle events go to
// everyone regardless.
type Server struct {
	mu      sync.Mutex
	clients map[*scanClient]struct{}
}

func NewServer(bus *events.Bus) *Server {
	s := &Server{
		clients: make(map[*scanClient]struct{}),
	}
	bus.Subscribe(events.EventScanStarted, s.forward)
	bus.Subscribe(events.EventFixtureResult, s.forward)
	bus.Subscribe(events.EventFixtureSkip, s.forward)
	bus.Subscribe(events.EventScanComplete, s.forward)
	return s
}

// forward is called on the publisher's goroutine. It serializes the event
// and enqueues it to matching clients' send channels (non-blocking).
func (s *Server) forward(evt events.Event) error {
	data, err := MarshalEvent(evt)
	if err != nil {
		telemetry.Warnf("fanout: marshal error: %v", err)
		return nil
	}

	lifecycle := evt.Type == events.EventScanStarted || evt.Type == events.EventScanComplete

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if !lifecycle && c.league != "" && !strings.EqualFold(c.league, evt.League) {
			continue
		}
		select {
		case c.send <- data:
		default:
			telemetry.Warnf("fanout: dropping message for slow client league=%q", c.league)
		}
	}
	return nil
}

// HandleWS is the HTTP handler for WebSocket upgrade requests.
// Clients may connect with ?league=Premier%20League to scope the stream.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	league := r.URL.Query().Get("league")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		telemetry.Warnf("fanout: upgrade failed: %v", err)
		return
	}

	c := &scanClient{
		league: league,
		conn:   conn,
		send:   make(chan []byte, clientSendBuf),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	if league == "" {
		telemetry.Plainf("Fanout: Client Connected [all leagues]")
	} else {
		telemetry.Plainf("Fanout: Client Connected [%s]", league)
	}

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains the client's send channel and writes to the WS connection.
// It owns the client lifecycle: on exit it removes the client from the map
// (so forward never sends to a stale channel) and closes the connection.
func (s *Server) writePump(c *scanClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.removeClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				telemetry.Warnf("fanout: write error league=%q: %v", c.league, err)
				return
			}
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive by reading pongs / close frames.
// No upstream messages are expected from subscribers.
// On exit it signals writePump via c.done (never closes c.send).
func (s *Server) readPump(c *scanClient) {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(c *scanClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	telemetry.Plainf("Fanout: Client Disconnected [%s]", c.league)
}

// ListenAndServe starts the fanout WebSocket server.
func (s *Server) ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)

	addr := fmt.Sprintf(":%d", port)
	telemetry.Plainf("fanout: server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
