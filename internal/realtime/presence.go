package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Presence tracks which users are "online" for broadcast purposes. It only
// changes on explicit join/leave signals or a full disconnect, so it is
// maintained independently of the Registry and the two may diverge.
type Presence struct {
	mu     sync.RWMutex
	online map[uuid.UUID]struct{}
}

func NewPresence() *Presence {
	return &Presence{online: make(map[uuid.UUID]struct{})}
}

func (p *Presence) MarkOnline(id uuid.UUID) {
	p.mu.Lock()
	p.online[id] = struct{}{}
	p.mu.Unlock()
}

func (p *Presence) MarkOffline(id uuid.UUID) {
	p.mu.Lock()
	delete(p.online, id)
	p.mu.Unlock()
}

func (p *Presence) IsOnline(id uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[id]
	return ok
}

// Snapshot returns the current membership; order is not stable across calls.
func (p *Presence) Snapshot() []uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(p.online))
	for id := range p.online {
		out = append(out, id)
	}
	return out
}
