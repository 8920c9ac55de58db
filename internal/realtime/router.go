package realtime

import "github.com/google/uuid"

// Router resolves target identities through the Registry and fans events out
// to their sockets. Delivery is best-effort: unresolved targets are skipped
// and a full or dead socket drops the frame without error.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Broadcast delivers the event to every resolvable target, at most once per
// connection even if targets repeat.
func (rt *Router) Broadcast(targets []uuid.UUID, kind string, payload any) {
	rt.send(rt.registry.Resolve(targets), kind, payload)
}

// BroadcastExcept is Broadcast with the originating identity removed, for
// "to others" semantics (typing signals do not echo to the sender).
func (rt *Router) BroadcastExcept(targets []uuid.UUID, except uuid.UUID, kind string, payload any) {
	filtered := make([]uuid.UUID, 0, len(targets))
	for _, id := range targets {
		if id != except {
			filtered = append(filtered, id)
		}
	}
	rt.send(rt.registry.Resolve(filtered), kind, payload)
}

// BroadcastAll delivers to every registered connection.
func (rt *Router) BroadcastAll(kind string, payload any) {
	rt.send(rt.registry.Conns(), kind, payload)
}

func (rt *Router) send(conns []*Conn, kind string, payload any) {
	seen := make(map[*Conn]struct{}, len(conns))
	for _, c := range conns {
		if c == nil {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		_ = c.Send(kind, payload) // fire-and-forget
	}
}
