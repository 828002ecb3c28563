package notify

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrNoSession = errors.New("no live session")

const writeTimeout = 2 * time.Second

// WSSession wraps a connected client. The mutex serializes writes; gorilla
// connections allow at most one concurrent writer.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) send(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(env)
}

// WSRegistry maps client identifiers to websocket sessions and implements
// Channel over them. One registry instance serves passengers, another
// serves drivers.
type WSRegistry struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{logger: logger, sessions: make(map[string]*WSSession)}
}

// Add registers a connection, replacing any previous session for the same
// id; the replaced connection is closed.
func (r *WSRegistry) Add(id string, conn *websocket.Conn) {
	r.mu.Lock()
	prev := r.sessions[id]
	r.sessions[id] = &WSSession{conn: conn}
	r.mu.Unlock()
	if prev != nil {
		_ = prev.conn.Close()
	}
}

// Remove drops the session for id if it is still the given connection.
func (r *WSRegistry) Remove(id string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && s.conn == conn {
		delete(r.sessions, id)
	}
}

func (r *WSRegistry) Publish(targetID, event string, payload any) error {
	r.mu.RLock()
	s, ok := r.sessions[targetID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.send(Envelope{Event: event, Data: payload}); err != nil {
		r.logger.Warn("ws publish failed", "target", targetID, "event", event, "error", err)
		return err
	}
	return nil
}
