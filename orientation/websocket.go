package orientation

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketSource accepts DeviceOrientation readings from phone browsers.
// Mount it on an HTTP server; every connected page pushes JSON messages
// such as {"alpha": 10, "beta": 90, "gamma": 0}.
type WebSocketSource struct {
	*stream
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

// NewWebSocketSource returns a source accepting connections from any
// origin.
func NewWebSocketSource() *WebSocketSource {
	return &WebSocketSource{
		stream: newStream(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and reads readings until the peer leaves.
func (s *WebSocketSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade error: %v", err)
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	log.Printf("websocket: sensor connected from %s", r.RemoteAddr)

	for {
		var d DeviceOrientation
		if err := conn.ReadJSON(&d); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket: read error: %v", err)
			}
			break
		}
		s.publish(d.Position())
	}
	log.Printf("websocket: sensor %s disconnected", r.RemoteAddr)
}

func (s *WebSocketSource) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *WebSocketSource) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	c.Close()
}

// Connections returns the number of connected sensors.
func (s *WebSocketSource) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close drops every connection and closes the sample channel.
func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.stream.close()
	return nil
}
