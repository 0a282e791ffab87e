package relay

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsSession wraps one gorilla connection behind the Socket interface.
// gorilla allows a single concurrent writer, and the router sends from
// whichever reader goroutine handled the inbound frame, so writes take a
// mutex. Once markClosed has run every Send is a silent no-op.
type wsSession struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newWSSession(conn *websocket.Conn) *wsSession {
	return &wsSession{conn: conn}
}

func (s *wsSession) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSession) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
