package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps a user to its live connection. One handle per user: a later
// connect overwrites the earlier mapping, orphaning the old handle's routing
// entry (that socket stays open until it disconnects on its own).
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*Conn)}
}

func (r *Registry) Register(id uuid.UUID, c *Conn) {
	r.mu.Lock()
	r.conns[id] = c
	r.mu.Unlock()
}

// Deregister removes the mapping if present; no-op otherwise.
func (r *Registry) Deregister(id uuid.UUID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Resolve maps identities to their current handles, in input order. Entries
// with no live connection come back nil; callers skip them.
func (r *Registry) Resolve(ids []uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, len(ids))
	for i, id := range ids {
		out[i] = r.conns[id]
	}
	return out
}

// Conns snapshots every live connection, for global broadcasts.
func (r *Registry) Conns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
