// Package wampnet implements a symmetric WAMP v1 peer: the same type acts
// as client or server over a single WebSocket connection, dispatching
// incoming requests into a directory.Directory and relaying outgoing
// publishes/events back out over the wire.
package wampnet

import (
	"sync"

	"github.com/tunaoezer/Intercom/registry"
	"github.com/tunaoezer/Intercom/uri"
)

// FrameSender is the minimal outbound transport surface a Connection needs.
// Binary frames are reserved for future use; WAMP v1 only ever sends text.
type FrameSender interface {
	SendText(text string) bool
	SendBinary(data []byte) bool
}

// Caller receives the outcome of a call issued through a Connection.
type Caller interface {
	OnSuccess(result interface{})
	OnError(errorUri *uri.Uri, description string, details interface{})
}

// connection holds the session state shared by every WAMP connection
// regardless of which side welcomed the other. homePath anchors every
// request this connection dispatches or relays: the directory is
// addressed relative to it, so distinct connections never collide even
// though they all resolve paths against the same shared Directory.
type connection struct {
	mu sync.Mutex

	uri         *uri.Uri
	userAccount string
	homePath    string
	serverId    string
	sessionId   string
	isReady     bool

	connections *registry.ConnectionRegistry
}

// Connection is the symmetric client/server contract every WAMP transport
// implements: calls, publishes, subscriptions, and raw frame processing.
type Connection interface {
	Call(path string, caller Caller, arguments ...interface{}) error
	CallUri(target *uri.Uri, caller Caller, arguments ...interface{}) error
	Publish(path string, data interface{}, options ...PublishOption) error
	PublishUri(target *uri.Uri, data interface{}, options ...PublishOption) error
	Subscribe(path string) bool
	Unsubscribe(path string) bool
	Process(input string) bool
	Close()

	GetHomePath() string
	GetHostname() string
	GetServerId() string
	GetSessionId() string
	GetUri() *uri.Uri
	GetUserAccount() string
	IsReady() bool
}

// newConnection constructs the shared state for a connection addressed by
// u and identified to the directory by homePath. homePath is normalized to
// start with '/' and, unless it is the root "/", not end with one,
// matching the convention every directory path in this package follows.
func newConnection(u *uri.Uri, userAccount, homePath string, connections *registry.ConnectionRegistry) *connection {
	if homePath == "" || homePath[0] != '/' {
		homePath = "/" + homePath
	}
	for len(homePath) > 1 && homePath[len(homePath)-1] == '/' {
		homePath = homePath[:len(homePath)-1]
	}
	return &connection{
		uri:         u,
		userAccount: userAccount,
		homePath:    homePath,
		sessionId:   "0",
		connections: connections,
	}
}

// close marks the connection not-ready. Callers embedding connection must
// still perform their own transport teardown and subscription cleanup.
func (c *connection) close(self Connection) {
	c.setIsReady(self, false)
}

// setIsReady transitions readiness and, on an actual state change,
// registers or deregisters self with the connection registry. self is
// passed explicitly because connection itself does not implement
// Connection; the concrete WampConnection embedding it does.
func (c *connection) setIsReady(self Connection, ready bool) {
	c.mu.Lock()
	changed := c.isReady != ready
	c.isReady = ready
	c.mu.Unlock()
	if !changed || c.connections == nil {
		return
	}
	if ready {
		c.connections.Add(self)
	} else {
		c.connections.Remove(self)
	}
}

func (c *connection) GetHomePath() string { return c.homePath }

func (c *connection) GetHostname() string { return c.uri.Host() }

func (c *connection) GetServerId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverId
}

func (c *connection) setServerId(serverId string) {
	c.mu.Lock()
	c.serverId = serverId
	c.mu.Unlock()
}

func (c *connection) GetSessionId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionId
}

func (c *connection) setSessionId(sessionId string) {
	c.mu.Lock()
	c.sessionId = sessionId
	c.mu.Unlock()
}

func (c *connection) GetUri() *uri.Uri { return c.uri }

func (c *connection) GetUserAccount() string { return c.userAccount }

func (c *connection) setUserAccount(userAccount string) {
	c.mu.Lock()
	c.userAccount = userAccount
	c.mu.Unlock()
}

func (c *connection) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReady
}
