package message

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IMakeBotsForYou/yomitan/internal/eventbus"
	"github.com/IMakeBotsForYou/yomitan/internal/logging"
)

// Router bridges the cross-context messaging channel to local handler
// functions and to locally-observable events. The handler table is fixed at
// construction; events support dynamic subscription through the embedded
// Dispatcher.
type Router struct {
	*eventbus.Dispatcher

	handlers map[string]Handler
	location func() string
	log      *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLocation sets the provider for this context's current location,
// returned by the getUrl handler.
func WithLocation(fn func() string) RouterOption {
	return func(r *Router) {
		r.location = fn
	}
}

// WithLogger overrides the router's logger.
func WithLogger(log *slog.Logger) RouterOption {
	return func(r *Router) {
		r.log = log
	}
}

// NewRouter creates a Router, builds its handler table, and registers it as
// the channel's sole inbound listener.
func NewRouter(ch Channel, opts ...RouterOption) *Router {
	r := &Router{
		Dispatcher: eventbus.New(),
		location:   func() string { return "" },
		log:        logging.ForComponent(logging.CompRouter),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]Handler{
		ActionGetURL:        r.handleGetURL,
		ActionOptionsUpdate: r.handleOptionsUpdate,
	}
	ch.AddListener(r.Dispatch)
	return r
}

// Dispatch looks up the message's action in the handler table and invokes the
// handler synchronously. Unknown actions return handled=false without error;
// a handler fault is returned as-is for the channel to propagate.
func (r *Router) Dispatch(msg Message, sender Sender) (any, bool, error) {
	h, ok := r.handlers[msg.Action]
	if !ok {
		r.log.Debug("unhandled_action",
			slog.String("action", msg.Action),
			slog.String("sender", sender.ID))
		return nil, false, nil
	}
	result, err := h(msg.Params, sender)
	return result, true, err
}

// TriggerOrphaned raises the local orphaned event, signalling that this
// execution context has been invalidated. The event never crosses the
// channel.
func (r *Router) TriggerOrphaned(err error) {
	r.Trigger(EventOrphaned, OrphanedDetails{Err: err})
}

// handleGetURL answers a getUrl query with the current location. Pure query,
// no side effect.
func (r *Router) handleGetURL(_ json.RawMessage, _ Sender) (any, error) {
	return GetURLResult{URL: r.location()}, nil
}

type optionsUpdateParams struct {
	Source string `json:"source"`
}

// handleOptionsUpdate re-publishes an inbound options update as the local
// optionsUpdate event. Local subscribers are notified synchronously before
// the reply is sent.
func (r *Router) handleOptionsUpdate(params json.RawMessage, _ Sender) (any, error) {
	var p optionsUpdateParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("message: invalid optionsUpdate params: %w", err)
		}
	}
	r.Trigger(EventOptionsUpdate, OptionsUpdateDetails{Source: p.Source})
	return nil, nil
}
