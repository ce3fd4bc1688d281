package channel

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/IMakeBotsForYou/yomitan/internal/extension"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Extension contexts connect from extension origins, not the bridge's
	// own origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const heartbeatInterval = 30 * time.Second

// HandleWS upgrades an HTTP request to a WebSocket connection, registers the
// peer as an execution context, and runs its read loop until the connection
// closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sender := s.RegisterClient(conn, r.Header.Get("Origin"), r.UserAgent())
	env := extension.FromSender(sender)
	s.log.Info("context_connected",
		slog.String("client_id", sender.ID),
		slog.String("origin", sender.Origin),
		slog.String("browser", string(env.Browser)))
	defer func() {
		s.UnregisterClient(sender.ID)
		s.log.Info("context_disconnected", slog.String("client_id", sender.ID))
	}()

	// Tell the client the connection is ready.
	_ = conn.WriteJSON(&notice{Action: "connected"})

	// Periodic heartbeat keeps the connection alive and surfaces stale
	// clients through write failures.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteJSON(&notice{Action: "heartbeat"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				s.log.Warn("ws_closed_unexpectedly",
					slog.String("client_id", sender.ID),
					slog.String("error", err.Error()))
			}
			return
		}

		if err := s.HandleMessage(sender.ID, payload); err != nil {
			s.log.Warn("ws_message_error",
				slog.String("client_id", sender.ID),
				slog.String("error", err.Error()))
		}
	}
}
