// Package message routes inbound cross-context messages to a fixed table of
// named handlers and re-exposes select notifications as local events.
package message

import (
	"encoding/json"

	"github.com/IMakeBotsForYou/yomitan/internal/eventbus"
)

// Actions serviced by the router's built-in handler table.
const (
	ActionGetURL        = "getUrl"
	ActionOptionsUpdate = "optionsUpdate"
)

// Local events published by the router. These never cross the channel.
const (
	EventOptionsUpdate eventbus.EventType = "optionsUpdate"
	EventOrphaned      eventbus.EventType = "orphaned"
)

// Message is a named inbound message from another execution context.
type Message struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Sender describes the execution context a message came from.
type Sender struct {
	ID        string `json:"id,omitempty"`
	Origin    string `json:"origin,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Handler services one inbound action. Its result is delivered back to the
// sender through the channel's reply mechanism.
type Handler func(params json.RawMessage, sender Sender) (any, error)

// DispatchFunc receives an inbound message and returns the reply value.
// handled is false when no handler exists for the action; the channel then
// applies its own default no-response behavior.
type DispatchFunc func(msg Message, sender Sender) (result any, handled bool, err error)

// Channel is the host-provided transport that delivers inbound messages and
// carries reply values back to their senders. AddListener registers the sole
// inbound listener; the router calls it exactly once.
type Channel interface {
	AddListener(fn DispatchFunc)
}

// GetURLResult is the reply to a getUrl query.
type GetURLResult struct {
	URL string `json:"url"`
}

// OptionsUpdateDetails is the payload of the local optionsUpdate event.
type OptionsUpdateDetails struct {
	Source string
}

// OrphanedDetails is the payload of the local orphaned event, raised when
// this execution context has been invalidated.
type OrphanedDetails struct {
	Err error
}
