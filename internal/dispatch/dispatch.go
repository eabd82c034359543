// Package dispatch routes user actions to registered handlers. Handlers are
// keyed by action name; actions tied to one live message (a ballot's vote
// menu) are additionally keyed by that surface and unregistered when the
// ballot closes.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownOrigin = errors.New("unknown interaction origin")

// Action names the core registers handlers for.
const (
	ActionNewSession   = "new-session"
	ActionJoin         = "join"
	ActionLeave        = "leave"
	ActionAccept       = "accept"
	ActionDecline      = "decline"
	ActionToggleAccess = "toggle-access"
	ActionDelete       = "delete"
	ActionVote         = "vote"
	ActionVoteWithdraw = "vote-withdraw"
)

// Request is one user action as delivered by the transport.
type Request struct {
	Action  string
	Surface string // session id, community id, or ballot message id
	ActorID string
	Payload map[string]string
}

// Result is reported back to the acting user as a short message. Err is a
// user-facing, recoverable rejection; it never carries internal state.
type Result struct {
	Msg string
	Err error
}

type HandlerFunc func(ctx context.Context, req Request) Result

type scopeKey struct {
	action  string
	surface string
}

type Dispatcher struct {
	mu     sync.RWMutex
	global map[string]HandlerFunc
	scoped map[scopeKey]HandlerFunc
}

func New() *Dispatcher {
	return &Dispatcher{
		global: make(map[string]HandlerFunc),
		scoped: make(map[scopeKey]HandlerFunc),
	}
}

// Register installs the handler for an action name.
func (d *Dispatcher) Register(action string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.global[action] = h
}

// RegisterScoped installs a handler for an action on one specific surface.
// Scoped handlers shadow the global handler for that surface.
func (d *Dispatcher) RegisterScoped(action, surface string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scoped[scopeKey{action, surface}] = h
}

// UnregisterScoped removes a scoped handler. Safe to call twice.
func (d *Dispatcher) UnregisterScoped(action, surface string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.scoped, scopeKey{action, surface})
}

// UnregisterSurface removes every scoped handler bound to a surface.
func (d *Dispatcher) UnregisterSurface(surface string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.scoped {
		if key.surface == surface {
			delete(d.scoped, key)
		}
	}
}

// Invoke runs the handler for the request, preferring a scoped match.
func (d *Dispatcher) Invoke(ctx context.Context, req Request) Result {
	d.mu.RLock()
	h, ok := d.scoped[scopeKey{req.Action, req.Surface}]
	if !ok {
		h, ok = d.global[req.Action]
	}
	d.mu.RUnlock()

	if !ok {
		return Result{Err: ErrUnknownOrigin}
	}
	return h(ctx, req)
}
