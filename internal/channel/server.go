package channel

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IMakeBotsForYou/yomitan/internal/logging"
	"github.com/IMakeBotsForYou/yomitan/internal/message"
)

// Conn is the interface required for a client connection.
// It is intentionally minimal to allow easy testing with mocks.
type Conn interface {
	WriteJSON(v interface{}) error
}

// client tracks a single connected execution context.
type client struct {
	conn   Conn
	sender message.Sender
}

// Server manages connected execution contexts and dispatches their inbound
// messages to the single registered listener.
type Server struct {
	mu       sync.RWMutex
	clients  map[string]*client
	nextID   int
	dispatch message.DispatchFunc
	log      *slog.Logger
}

// NewServer creates a Server with no clients and no listener.
func NewServer() *Server {
	return &Server{
		clients: make(map[string]*client),
		log:     logging.ForComponent(logging.CompChannel),
	}
}

// AddListener registers the inbound-message listener. The transport supports
// exactly one listener; a second registration panics.
func (s *Server) AddListener(fn message.DispatchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatch != nil {
		panic("channel: listener already registered")
	}
	s.dispatch = fn
}

// RegisterClient adds a connection to the server and returns the sender
// identity assigned to it. Origin and user agent describe the peer context.
func (s *Server) RegisterClient(conn Conn, origin, userAgent string) message.Sender {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sender := message.Sender{
		ID:        fmt.Sprintf("context-%d", s.nextID),
		Origin:    origin,
		UserAgent: userAgent,
	}
	s.clients[sender.ID] = &client{conn: conn, sender: sender}
	return sender
}

// UnregisterClient removes a client. It is safe to call with an unknown ID.
func (s *Server) UnregisterClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// HandleMessage processes a raw JSON message from a client: it decodes the
// request, dispatches it to the listener, and writes the reply. A request
// whose action has no handler gets no reply (the channel's default). A
// handler fault is written back as an error envelope.
func (s *Server) HandleMessage(clientID string, raw json.RawMessage) error {
	req, err := parseRequest(raw)
	if err != nil {
		return err
	}

	s.mu.RLock()
	c, ok := s.clients[clientID]
	fn := s.dispatch
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("channel: unknown client %q", clientID)
	}
	if fn == nil {
		// No listener yet: same as an unhandled action.
		return nil
	}

	result, handled, err := fn(message.Message{
		Action: req.Action,
		Params: req.Params,
	}, c.sender)
	if !handled {
		return nil
	}
	if err != nil {
		env := message.Encode(err)
		s.log.Warn("handler_fault",
			slog.String("action", req.Action),
			slog.String("client_id", clientID),
			slog.String("error", err.Error()))
		return c.conn.WriteJSON(&response{ID: req.ID, Error: &env})
	}
	return c.conn.WriteJSON(&response{ID: req.ID, Result: result})
}

// Broadcast pushes a named notice to every connected client. Write errors are
// dropped; a failing client is cleaned up by its own read loop.
func (s *Server) Broadcast(action string, params any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		_ = c.conn.WriteJSON(&notice{Action: action, Params: params})
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ConnectedSenders returns the sender identities of all connected clients.
func (s *Server) ConnectedSenders() []message.Sender {
	s.mu.RLock()
	defer s.mu.RUnlock()
	senders := make([]message.Sender, 0, len(s.clients))
	for _, c := range s.clients {
		senders = append(senders, c.sender)
	}
	return senders
}
