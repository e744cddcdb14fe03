// Package registry tracks live connections and the services that should be
// wired to them, replacing the singleton ConnectionManager/PluginManager
// pair with explicit, constructible registries.
package registry

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tunaoezer/Intercom/errors"
)

// Connection is the subset of wampnet.Connection the registry package
// needs. Any concrete connection type satisfies this structurally; the
// registry never imports wampnet, so there is no import cycle.
type Connection interface {
	IsReady() bool
	GetSessionId() string
	GetHomePath() string
	Subscribe(path string) bool
	Unsubscribe(path string) bool
}

// ConnectionListener is notified when a connection becomes ready or closes.
// ServiceRegistry implements this to auto-connect its services.
type ConnectionListener interface {
	OnConnect(conn Connection)
	OnDisconnect(conn Connection)
}

// ConnectionRegistry tracks every ready connection in the process and fans
// out connect/disconnect notifications to registered listeners. Connections
// add and remove themselves as their readiness changes; nothing else
// should call Add or Remove directly.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[Connection]struct{}
	listeners   []ConnectionListener
}

// NewConnectionRegistry constructs an empty ConnectionRegistry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{connections: make(map[Connection]struct{})}
}

var defaultConnections = NewConnectionRegistry()

// DefaultConnections returns the process-wide ConnectionRegistry singleton.
func DefaultConnections() *ConnectionRegistry { return defaultConnections }

// AddListener registers l to be notified of future connect/disconnect
// events. Listeners are not notified retroactively for connections already
// present in the registry.
func (r *ConnectionRegistry) AddListener(l ConnectionListener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Add registers a ready connection and notifies listeners concurrently.
// Adding an already-registered connection, or one that is not ready, has
// no effect beyond reporting ErrNotReady for the latter.
func (r *ConnectionRegistry) Add(conn Connection) error {
	if !conn.IsReady() {
		return errors.WrapInvalid(errors.ErrNotReady, "registry", "Add", "connection readiness check")
	}
	r.mu.Lock()
	if _, exists := r.connections[conn]; exists {
		r.mu.Unlock()
		return nil
	}
	r.connections[conn] = struct{}{}
	listeners := append([]ConnectionListener(nil), r.listeners...)
	r.mu.Unlock()

	notify(listeners, func(l ConnectionListener) { l.OnConnect(conn) })
	return nil
}

// Remove deregisters conn, if present, and notifies listeners.
func (r *ConnectionRegistry) Remove(conn Connection) {
	r.mu.Lock()
	if _, exists := r.connections[conn]; !exists {
		r.mu.Unlock()
		return
	}
	delete(r.connections, conn)
	listeners := append([]ConnectionListener(nil), r.listeners...)
	r.mu.Unlock()

	notify(listeners, func(l ConnectionListener) { l.OnDisconnect(conn) })
}

// Connections returns a snapshot of all currently registered connections.
func (r *ConnectionRegistry) Connections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0, len(r.connections))
	for conn := range r.connections {
		out = append(out, conn)
	}
	return out
}

// NumConnections returns the number of registered connections.
func (r *ConnectionRegistry) NumConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// notify runs fn for every listener concurrently and waits for all of them
// to finish. A listener callback never returns an error, so the errgroup
// here exists purely to bound the fan-out and wait on it, not to propagate
// failure.
func notify(listeners []ConnectionListener, fn func(ConnectionListener)) {
	if len(listeners) == 0 {
		return
	}
	var g errgroup.Group
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			fn(l)
			return nil
		})
	}
	_ = g.Wait()
}
