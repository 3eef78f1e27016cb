// Package registry is a thread-safe, named lookup of shared broker
// connections, letting a demo harness or long-lived service distribute a
// small number of Connections across many Producers and Consumers without
// passing them through every call site.
package registry

import (
	"fmt"
	"maps"
	"sync"

	ampqconn "github.com/dihedron/ampq/amqpconn"
)

// Registry holds named *amqpconn.Connection handles.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*ampqconn.Connection
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{connections: make(map[string]*ampqconn.Connection)}
}

// Set registers conn under name. Returns an error if name is already
// registered.
func (r *Registry) Set(name string, conn *ampqconn.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.connections[name]; found {
		return fmt.Errorf("registry: connection %q already registered", name)
	}
	r.connections[name] = conn
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, found := r.connections[name]
	return found
}

// Get returns the connection registered under name. The returned handle is
// the registry's own; callers that need an independently closeable handle
// should call its Clone method. Returns an error if name is not
// registered.
func (r *Registry) Get(name string) (*ampqconn.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, found := r.connections[name]
	if !found {
		return nil, fmt.Errorf("registry: no connection registered as %q", name)
	}
	return conn, nil
}

// GetAll returns a copy of the name-to-connection map. The returned
// Connections are the registry's own handles; callers must not close them
// directly.
func (r *Registry) GetAll() map[string]*ampqconn.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.connections)
}

// Remove closes and deregisters the connection registered under name.
// Returns an error if name is not registered.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, found := r.connections[name]
	if !found {
		return fmt.Errorf("registry: no connection registered as %q", name)
	}
	delete(r.connections, name)
	return conn.Close()
}
