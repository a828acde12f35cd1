package host

import "sync"

// registry maintains the connection identifier → Connection route table.
// Inbound signals and transport callbacks use it to find the live connection
// for an identifier.
type registry struct {
	mu    sync.Mutex
	conns map[uint64]*Connection
}

func newRegistry() *registry {
	return &registry{conns: make(map[uint64]*Connection)}
}

// register inserts conn under its identifier, overwriting any previous entry.
func (r *registry) register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.id] = conn
}

// lookup returns the connection for an identifier.
func (r *registry) lookup(id uint64) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// unregister removes the entry for conn's identifier, but only while it
// still refers to conn — a fresh negotiation may have reused the identifier
// before a stale transport reported its terminal state. Reports whether an
// entry was removed.
func (r *registry) unregister(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[conn.id]; ok && current == conn {
		delete(r.conns, conn.id)
		return true
	}
	return false
}

// values returns a snapshot of all registered connections. Used at shutdown.
func (r *registry) values() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// clear empties the route table.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = make(map[uint64]*Connection)
}
