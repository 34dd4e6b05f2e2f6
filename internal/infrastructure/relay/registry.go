package relay

import "sync"

// Registry maps a user identity to its single live connection. It is
// owned by a Server instance and rebuilt from scratch on every process
// restart; an identity with no entry is offline.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Conn),
	}
}

// Bind registers conn under userID and returns the superseded connection,
// if any. Latest connection wins; the caller is responsible for closing
// the returned connection.
func (r *Registry) Bind(userID string, conn *Conn) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	if prev == conn {
		return nil
	}
	r.conns[userID] = conn
	return prev
}

// Resolve returns the live connection for userID, if one is registered.
func (r *Registry) Resolve(userID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Remove drops the entry for userID, but only while it still points at
// conn. A connection superseded by a rebind must not unregister its
// replacement on close.
func (r *Registry) Remove(userID string, conn *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] != conn {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Snapshot returns the current set of connections for the heartbeat sweep.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
