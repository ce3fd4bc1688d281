// Package channel implements the cross-context messaging transport over
// WebSocket connections. Each connected client is an extension execution
// context; inbound {action, params} requests are dispatched to the registered
// listener and the reply value is written back on the same connection.
package channel

import (
	"encoding/json"

	"github.com/IMakeBotsForYou/yomitan/internal/message"
)

// request is the wire format for an inbound client message.
type request struct {
	ID     string          `json:"id,omitempty"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is the wire format for a reply. Exactly one of Result or Error is
// set. Requests whose action has no handler get no response at all; clients
// are expected to time out on their own.
type response struct {
	ID     string            `json:"id,omitempty"`
	Result any               `json:"result,omitempty"`
	Error  *message.Envelope `json:"error,omitempty"`
}

// notice is a server-initiated push carrying a named action with no reply
// expected, such as an options update broadcast.
type notice struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
}

// parseRequest decodes a raw JSON message into a request.
func parseRequest(raw json.RawMessage) (*request, error) {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, &ProtocolError{Raw: raw, Cause: err}
	}
	return &req, nil
}

// ProtocolError reports a malformed inbound message.
type ProtocolError struct {
	Raw   json.RawMessage
	Cause error
}

func (e *ProtocolError) Error() string {
	return "channel: invalid request: " + e.Cause.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}
