package tenantdb

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the concurrent map from tenant public id to live connection.
// It is the only mutable state shared across request handlers: many readers on
// every tenant-scoped request, rare writers (boot, onboarding, offboarding).
// A key is present iff that tenant's schema migrated successfully and the
// connection is usable; Insert is the commit point of provisioning.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*Conn)}
}

// Get returns the live connection for a tenant, if registered.
func (r *Registry) Get(publicID uuid.UUID) (*Conn, bool) {
	r.mu.RLock()
	conn, ok := r.conns[publicID]
	r.mu.RUnlock()
	return conn, ok
}

// Insert publishes a connection for the tenant, replacing any prior entry
// (reconnect/rotation). The displaced connection is returned so the caller can
// drain it; it is never closed here while readers may still hold it.
func (r *Registry) Insert(publicID uuid.UUID, conn *Conn) *Conn {
	r.mu.Lock()
	prev := r.conns[publicID]
	r.conns[publicID] = conn
	r.mu.Unlock()
	return prev
}

// Remove unpublishes the tenant's connection. The caller owns draining and
// closing the returned connection, in that order.
func (r *Registry) Remove(publicID uuid.UUID) (*Conn, bool) {
	r.mu.Lock()
	conn, ok := r.conns[publicID]
	if ok {
		delete(r.conns, publicID)
	}
	r.mu.Unlock()
	return conn, ok
}

// Len reports the number of registered tenants.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.conns)
	r.mu.RUnlock()
	return n
}

// PublicIDs returns the registered tenant ids, in no particular order.
func (r *Registry) PublicIDs() []uuid.UUID {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	return ids
}

// Close removes every connection and closes it. Intended for process shutdown
// after the HTTP listener has stopped accepting requests.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[uuid.UUID]*Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
