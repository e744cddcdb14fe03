package registry

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/errors"
)

// serviceHandler records one handler a Service has added to the directory,
// enough information to subscribe/unsubscribe a connection's wire
// subscription for it and to remove it again later.
type serviceHandler struct {
	nodePath    string
	requestPath string
	requestType directory.RequestType
	handlerName string
}

// Service is a named bundle of directory handlers sharing a home path. It
// mirrors ai.general.plugin.ServiceDefinition but drops reflective
// annotation scanning: handlers are registered explicitly by the caller
// with directory.Handler values (typically directory.MethodHandler or
// directory.HandlerFunc), not discovered from annotated methods.
type Service struct {
	mu          sync.Mutex
	name        string
	homePath    string
	directory   *directory.Directory
	handlers    []serviceHandler
	autoConnect bool
}

// AddHandler registers handler at path, relative to the service's home
// path, for requests of the given type. If path ends in "/*" the trailing
// wildcard marker is stripped before computing the directory node path;
// handler itself decides whether it behaves as a catch-all.
//
// requestType only affects wire bookkeeping: RequestPublish handlers are
// subscribed to and unsubscribed from connections as they connect and
// disconnect; RequestCall handlers are simply present for Directory.Handle
// to find and need no subscription.
func (s *Service) AddHandler(path string, requestType directory.RequestType, handler directory.Handler) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	nodePath := s.homePath + path
	nodePath = strings.TrimSuffix(nodePath, "/*")
	if err := s.directory.AddHandler(nodePath, handler); err != nil {
		return errors.Wrap(err, "registry", "Service.AddHandler", "add directory handler")
	}
	s.mu.Lock()
	s.handlers = append(s.handlers, serviceHandler{
		nodePath:    nodePath,
		requestPath: path,
		requestType: requestType,
		handlerName: handler.Name(),
	})
	s.mu.Unlock()
	return nil
}

// GetAutoConnect reports whether this service is automatically subscribed
// to and unsubscribed from connections as they connect and disconnect.
func (s *Service) GetAutoConnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoConnect
}

// SetAutoConnect sets whether the service is automatically connected. Unlike
// the source implementation this setter actually takes effect.
func (s *Service) SetAutoConnect(autoConnect bool) {
	s.mu.Lock()
	s.autoConnect = autoConnect
	s.mu.Unlock()
}

// GetHomePath returns the service's home path.
func (s *Service) GetHomePath() string { return s.homePath }

// GetName returns the service's unique registered name.
func (s *Service) GetName() string { return s.name }

// Connect subscribes conn to every RequestPublish handler's request path.
// Returns the first subscription failure encountered, after attempting all
// of them.
func (s *Service) Connect(conn Connection) error {
	s.mu.Lock()
	handlers := append([]serviceHandler(nil), s.handlers...)
	s.mu.Unlock()

	var firstErr error
	for _, h := range handlers {
		if h.requestType != directory.RequestPublish {
			continue
		}
		if !conn.Subscribe(h.requestPath) && firstErr == nil {
			firstErr = errors.WrapTransient(errors.ErrSubscriptionFailed, "registry", "Service.Connect", h.requestPath)
		}
	}
	return firstErr
}

// Disconnect unsubscribes conn from every RequestPublish handler's request
// path. Returns the first unsubscribe failure encountered, after
// attempting all of them.
func (s *Service) Disconnect(conn Connection) error {
	s.mu.Lock()
	handlers := append([]serviceHandler(nil), s.handlers...)
	s.mu.Unlock()

	var firstErr error
	for _, h := range handlers {
		if h.requestType != directory.RequestPublish {
			continue
		}
		if !conn.Unsubscribe(h.requestPath) && firstErr == nil {
			firstErr = errors.WrapTransient(errors.ErrSubscriptionFailed, "registry", "Service.Disconnect", h.requestPath)
		}
	}
	return firstErr
}

// removeAllHandlers removes every handler this service added from the
// directory. The directory paths themselves are left in place since other
// services or links may still use them.
func (s *Service) removeAllHandlers() {
	s.mu.Lock()
	handlers := append([]serviceHandler(nil), s.handlers...)
	s.handlers = nil
	s.mu.Unlock()

	for _, h := range handlers {
		s.directory.RemoveHandler(h.nodePath, h.handlerName)
	}
}

// ServiceRegistry manages the set of registered Services and auto-connects
// them to every ConnectionRegistry connection as it becomes ready,
// replacing ai.general.plugin.ServiceManager/PluginManager's connection
// bridging without the jar-scanning/plugin-loading machinery, which has no
// counterpart in a single statically-linked Go binary.
type ServiceRegistry struct {
	mu        sync.Mutex
	directory *directory.Directory
	services  map[string]*Service
}

// NewServiceRegistry constructs a ServiceRegistry that registers handlers
// into dir and auto-connects services to connections as they arrive in
// connections. Pass a nil connections registry to manage services without
// any auto-connect behavior (tests commonly do this).
func NewServiceRegistry(dir *directory.Directory, connections *ConnectionRegistry) *ServiceRegistry {
	sr := &ServiceRegistry{directory: dir, services: make(map[string]*Service)}
	if connections != nil {
		connections.AddListener(sr)
	}
	return sr
}

// AddService registers a new Service named name, rooted at homePath, and
// returns it so the caller can add handlers to it. Fails with
// ErrDuplicateName if name is already registered.
func (r *ServiceRegistry) AddService(name, homePath string) (*Service, error) {
	if !strings.HasSuffix(homePath, "/") {
		homePath += "/"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[name]; exists {
		return nil, errors.WrapInvalid(errors.ErrDuplicateName, "registry", "AddService", name)
	}
	svc := &Service{
		name:        name,
		homePath:    strings.TrimSuffix(homePath, "/"),
		directory:   r.directory,
		autoConnect: true,
	}
	r.services[name] = svc
	return svc, nil
}

// NewInternalName returns a process-unique name suitable for a service that
// has no natural caller-supplied name, e.g. one created per-connection.
func NewInternalName(prefix string) string {
	return prefix + ":" + uuid.NewString()
}

// GetService returns the named service, or nil if it is not registered.
func (r *ServiceRegistry) GetService(name string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services[name]
}

// HasService reports whether a service with the given name is registered.
func (r *ServiceRegistry) HasService(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.services[name]
	return exists
}

// RemoveService removes all of a service's handlers from the directory and
// unregisters it. Removing an unregistered name has no effect.
func (r *ServiceRegistry) RemoveService(name string) {
	r.mu.Lock()
	svc, exists := r.services[name]
	delete(r.services, name)
	r.mu.Unlock()
	if exists {
		svc.removeAllHandlers()
	}
}

// OnConnect implements ConnectionListener by connecting every auto-connect
// service to the new connection.
func (r *ServiceRegistry) OnConnect(conn Connection) {
	for _, svc := range r.snapshot() {
		if svc.GetAutoConnect() {
			_ = svc.Connect(conn)
		}
	}
}

// OnDisconnect implements ConnectionListener by disconnecting every
// auto-connect service from the closing connection. The remote endpoint
// may already be gone by the time this runs, so subscription failures are
// not treated as fatal.
func (r *ServiceRegistry) OnDisconnect(conn Connection) {
	for _, svc := range r.snapshot() {
		if svc.GetAutoConnect() {
			_ = svc.Disconnect(conn)
		}
	}
}

func (r *ServiceRegistry) snapshot() []*Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	return out
}

var defaultServices = NewServiceRegistry(directory.Default(), DefaultConnections())

// DefaultServices returns the process-wide ServiceRegistry singleton, wired
// to directory.Default() and DefaultConnections().
func DefaultServices() *ServiceRegistry { return defaultServices }
