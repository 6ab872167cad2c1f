package handler

import (
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/net"
	"github.com/realmgo/server/internal/protocol"
)

// Func handles one inbound message.
type Func func(c *Ctx, msg *protocol.Message)

type entry struct {
	states map[net.State]bool
	fn     Func
}

// Registry routes inbound messages by type tag, gated on session state.
// Messages arriving in the wrong state or with unknown tags are dropped
// silently per protocol policy.
type Registry struct {
	deps     *Deps
	handlers map[string]entry
	log      *zap.Logger
}

// NewRegistry builds an empty registry over deps.
func NewRegistry(deps *Deps) *Registry {
	return &Registry{
		deps:     deps,
		handlers: make(map[string]entry),
		log:      deps.Log.Named("dispatch"),
	}
}

// Register binds a message type to fn for the given states.
func (r *Registry) Register(msgType string, fn Func, states ...net.State) {
	allowed := make(map[net.State]bool, len(states))
	for _, st := range states {
		allowed[st] = true
	}
	r.handlers[msgType] = entry{states: allowed, fn: fn}
}

// Dispatch implements net.Dispatcher.
func (r *Registry) Dispatch(s *net.Session, msg *protocol.Message) {
	e, ok := r.handlers[msg.Type]
	if !ok {
		r.log.Debug("unknown message type", zap.String("type", msg.Type), zap.String("session", s.ID))
		return
	}
	if !e.states[s.State()] {
		r.log.Debug("message in wrong state",
			zap.String("type", msg.Type),
			zap.Int("state", int(s.State())),
			zap.String("session", s.ID))
		return
	}
	r.safeCall(e.fn, &Ctx{Sess: s, Deps: r.deps}, msg)
}

// safeCall keeps a panicking handler from killing the read pump.
func (r *Registry) safeCall(fn Func, c *Ctx, msg *protocol.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				zap.String("type", msg.Type),
				zap.String("session", c.Sess.ID),
				zap.Any("panic", rec))
		}
	}()
	fn(c, msg)
}

// Disconnected implements net.Dispatcher.
func (r *Registry) Disconnected(s *net.Session) {
	r.deps.World.HandleDisconnect(s)
}
