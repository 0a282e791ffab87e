package relay

import (
	"sync"
	"time"
)

// ConnectionInfo is the read-only view of a connection handed to the facade
// and the MCP tool.
type ConnectionInfo struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	RemoteAddr  string    `json:"remoteAddr"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry is the relay's only mutable shared state: the socket -> Connection
// table. Every access goes through the lock; connection roles are read and
// written nowhere else.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

func (r *Registry) Store(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// SetRole assigns a role to a connection. The role is write-once: a second
// call on the same connection returns false and leaves the role alone.
func (r *Registry) SetRole(id string, role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok || role == RoleUnknown {
		return false
	}
	if c.role != RoleUnknown {
		return false
	}
	c.role = role
	return true
}

func (r *Registry) RoleOf(id string) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[id]; ok {
		return c.role
	}
	return RoleUnknown
}

// Mains returns every connection registered as main.
func (r *Registry) Mains() []*Connection {
	return r.withRole(RoleMain)
}

// Remotes returns every connection registered as remote.
func (r *Registry) Remotes() []*Connection {
	return r.withRole(RoleRemote)
}

func (r *Registry) withRole(role Role) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		if c.role == role {
			conns = append(conns, c)
		}
	}
	return conns
}

// All returns every connection regardless of role.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// List returns connection snapshots for introspection surfaces.
func (r *Registry) List() []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(r.conns))
	for _, c := range r.conns {
		infos = append(infos, ConnectionInfo{
			ID:          c.ID,
			Role:        c.role.String(),
			RemoteAddr:  c.RemoteAddr,
			ConnectedAt: c.ConnectedAt,
		})
	}
	return infos
}
