// Package directory holds display identity for connected participants. The
// core stores participant data captured at join time; the directory is what
// the transport consults before that, when all it has is an actor id.
package directory

import "sync"

type Identity struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

type Directory struct {
	mu      sync.RWMutex
	entries map[string]Identity
}

func New() *Directory {
	return &Directory{entries: make(map[string]Identity)}
}

func (d *Directory) Register(id Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[id.ID] = id
}

func (d *Directory) Lookup(participantID string) (Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.entries[participantID]
	return id, ok
}
