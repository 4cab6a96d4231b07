package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"

	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
	"github.com/roketz/terrain/pkg/concurrent"
	"github.com/roketz/terrain/pkg/sequence"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	MessageSnapshot   = "snapshot"
	MessageDestructed = "destructed"
)

// Message is sent to websocket clients: one snapshot on connect, then one
// message per destruction.
type Message struct {
	Type        string               `json:"type"`
	Snapshot    *terrain.Snapshot    `json:"snapshot,omitempty"`
	Destruction *terrain.Destruction `json:"destruction,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(payload)
}

// write requires c.mu.
func (c *client) write(payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *DebugServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn}

	// Registering and snapshotting under the terrain lock means every later
	// destruction is both missing from the snapshot and broadcast to c. Holding
	// c.mu until the snapshot is written keeps those broadcasts behind it.
	var snapshot terrain.Snapshot
	c.mu.Lock()
	s.Do(func(t *terrain.Terrain) {
		s.clientsMu.Lock()
		s.clients[c] = struct{}{}
		s.clientsMu.Unlock()
		snapshot = t.Snapshot()
	})
	defer s.removeClient(c)

	s.logger.Debug("Websocket client connected", log.String("remote_addr", conn.RemoteAddr().String()))

	payload, err := json.Marshal(Message{Type: MessageSnapshot, Snapshot: &snapshot})
	if err != nil {
		c.mu.Unlock()
		s.logger.Error("Failed to encode snapshot", log.Error(err))
		return
	}
	err = c.write(payload)
	c.mu.Unlock()
	if err != nil {
		return
	}

	// Clients only listen; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// onDestructed runs inside Terrain.Destruct while the terrain lock is held,
// so it must not touch the terrain.
func (s *DebugServer) onDestructed(event bus.Event) error {
	d, ok := event.Data().(terrain.Destruction)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(Message{Type: MessageDestructed, Destruction: &d})
	if err != nil {
		return err
	}

	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	// Slow clients only delay themselves.
	return concurrent.Concurrent(context.Background(), sequence.From(clients), func(_ context.Context, c *client) error {
		if err := c.send(payload); err != nil {
			s.logger.Debug("Dropping websocket client", log.Error(err))
			s.removeClient(c)
		}
		return nil
	})
}

func (s *DebugServer) removeClient(c *client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

func (s *DebugServer) disconnectAll() {
	s.clientsMu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.clientsMu.Unlock()

	for c := range clients {
		_ = c.conn.Close()
	}
}

// Clients returns the number of connected websocket clients.
func (s *DebugServer) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
