package wampnet

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunaoezer/Intercom/directory"
	xerrors "github.com/tunaoezer/Intercom/errors"
	"github.com/tunaoezer/Intercom/logging"
	"github.com/tunaoezer/Intercom/registry"
	"github.com/tunaoezer/Intercom/uri"
)

// WAMP v1 message type identifiers, in order of the spec's numbering.
const (
	msgWelcome = iota
	msgPrefix
	msgCall
	msgCallResult
	msgCallError
	msgSubscribe
	msgUnsubscribe
	msgPublish
	msgEvent
)

const wampVersion = 1

// DefaultServerIdentity is advertised in the Welcome message sent by a
// connection acting as a server, unless overridden with
// WithServerIdentity.
const DefaultServerIdentity = "intercom-wampnet/1.0"

const sessionIdByteLength = 10 // 80 bits, base32-encodes to exactly 16 characters.

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// WampConnection is a symmetric WAMP v1 peer. The same type is used
// whether this side of the connection welcomes the other (server mode) or
// is welcomed (client mode); welcome() is what flips a connection from
// client to server mode.
type WampConnection struct {
	*connection

	mu sync.Mutex

	sender   FrameSender
	dir      *directory.Directory
	log      *logging.Logger
	limiter  *rate.Limiter
	identity string

	isServer              bool
	clientSubscribedUris  []*uri.Uri
	serverSubscribedPaths []string
	pendingRpcCalls       map[string]Caller
	rpcCallCounter        uint64
	prefixes              map[string]string
}

// WampOption configures optional WampConnection behavior.
type WampOption func(*WampConnection)

// WithServerIdentity overrides the identity string this connection
// advertises when it welcomes the remote side.
func WithServerIdentity(identity string) WampOption {
	return func(c *WampConnection) { c.identity = identity }
}

// WithRateLimiter attaches a token-bucket limiter that bounds how often
// Process accepts an inbound frame. Frames arriving faster than the
// limiter allows are dropped (Process returns false) rather than queued.
func WithRateLimiter(limiter *rate.Limiter) WampOption {
	return func(c *WampConnection) { c.limiter = limiter }
}

// WithLogger attaches a logger for protocol-level events. Without one,
// WampConnection logs nothing.
func WithLogger(log *logging.Logger) WampOption {
	return func(c *WampConnection) { c.log = log }
}

// NewWampConnection constructs a WampConnection addressed by u, dispatching
// into dir under homePath, sending frames through sender, and registering
// itself with connections once welcomed (by either side).
func NewWampConnection(
	u *uri.Uri,
	userAccount, homePath string,
	sender FrameSender,
	dir *directory.Directory,
	connections *registry.ConnectionRegistry,
	opts ...WampOption,
) *WampConnection {
	c := &WampConnection{
		connection:      newConnection(u, userAccount, homePath, connections),
		sender:          sender,
		dir:             dir,
		identity:        DefaultServerIdentity,
		pendingRpcCalls: make(map[string]Caller),
		prefixes:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call issues an RPC to path relative to this connection's uri and
// delivers the outcome to caller asynchronously, via a later CallResult or
// CallError frame processed by Process.
func (c *WampConnection) Call(path string, caller Caller, arguments ...interface{}) error {
	target, err := c.createUriFromPath(normalizePath(path))
	if err != nil {
		return err
	}
	return c.CallUri(target, caller, arguments...)
}

// CallUri is Call, addressed by an already-constructed URI.
func (c *WampConnection) CallUri(target *uri.Uri, caller Caller, arguments ...interface{}) error {
	c.mu.Lock()
	c.rpcCallCounter++
	callId := fmt.Sprintf("%s:%d:%d", c.GetSessionId(), c.rpcCallCounter, time.Now().UnixMilli())
	c.pendingRpcCalls[callId] = caller
	c.mu.Unlock()

	message := append([]interface{}{msgCall, callId, target.String()}, arguments...)
	if !c.sendMessage(message) {
		return xerrors.WrapTransient(xerrors.ErrNoConnection, "wampnet", "Call", target.String())
	}
	return nil
}

// ClearSessionId resets the session id to its initial unassigned value,
// "0". Useful when a client intends to reconnect and obtain a fresh
// session rather than reuse the old one.
func (c *WampConnection) ClearSessionId() {
	c.setSessionId("0")
}

// Close tears down the connection: it is marked not ready (deregistering
// it from the connection registry) and every outstanding subscription,
// client- and server-side, is cleaned up.
func (c *WampConnection) Close() {
	c.connection.close(c)
	c.unsubscribeAll()
}

// Event publishes data to path. Event and Publish send the exact same
// wire message; the distinction exists only for readability at the call
// site (server-side application code calls Event, client-side calls
// Publish) — which WAMP message type goes over the wire is decided by
// whether Welcome has been sent on this connection, not by which method
// name was called.
func (c *WampConnection) Event(path string, data interface{}, opts ...PublishOption) error {
	return c.Publish(path, data, opts...)
}

// IsServer reports whether this connection has sent a Welcome message,
// i.e. is acting as the server side of the session.
func (c *WampConnection) IsServer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isServer
}

// Prefix registers a CURIE prefix with the remote endpoint: subsequent
// method and topic URIs of the form "prefix:rest" sent to the remote
// expand there to expansion+rest.
func (c *WampConnection) Prefix(prefix, expansion string) bool {
	return c.sendMessage([]interface{}{msgPrefix, prefix, expansion})
}

// Process parses a single WAMP v1 text frame and dispatches it. Returns
// false if input is not a well-formed WAMP message, including when a rate
// limiter attached with WithRateLimiter rejects the frame.
func (c *WampConnection) Process(input string) bool {
	if input == "" {
		return false
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.logf("dropped frame: rate limit exceeded")
		return false
	}
	var message []interface{}
	if err := json.Unmarshal([]byte(input), &message); err != nil || len(message) < 1 {
		c.logf("malformed frame: %v", err)
		return false
	}
	typeId, ok := message[0].(float64)
	if !ok {
		return false
	}
	switch int(typeId) {
	case msgWelcome:
		return c.processWelcome(message)
	case msgPrefix:
		return c.processPrefix(message)
	case msgCall:
		return c.processCall(message)
	case msgCallResult:
		return c.processCallResult(message)
	case msgCallError:
		return c.processCallError(message)
	case msgSubscribe:
		return c.processSubscribe(message)
	case msgUnsubscribe:
		return c.processUnsubscribe(message)
	case msgPublish:
		return c.processPublish(message)
	case msgEvent:
		return c.processEvent(message)
	default:
		return false
	}
}

// Publish publishes data to path. See PublishUri for the filtering
// semantics of opts.
func (c *WampConnection) Publish(path string, data interface{}, opts ...PublishOption) error {
	target, err := c.createUriFromPath(normalizePath(path))
	if err != nil {
		return err
	}
	return c.PublishUri(target, data, opts...)
}

// PublishUri is Publish, addressed by an already-constructed URI.
//
// Without options the publish reaches every subscriber of target. Exclude
// and ExcludeMe narrow that by session id; Eligible narrows it to exactly
// the given session ids. Exclude and ExcludeMe are mutually exclusive on
// the wire (ExcludeMe wins if both are given); Eligible composes with
// either.
func (c *WampConnection) PublishUri(target *uri.Uri, data interface{}, opts ...PublishOption) error {
	var o publishOptions
	for _, opt := range opts {
		opt(&o)
	}
	message := []interface{}{c.publishMessageType(), target.String(), data}
	switch {
	case o.excludeMe:
		message = append(message, true)
	case len(o.exclude) > 0:
		message = append(message, o.exclude)
	}
	if len(o.eligible) > 0 {
		if len(message) < 4 {
			message = append(message, []string{})
		}
		message = append(message, o.eligible)
	}
	if !c.sendMessage(message) {
		return xerrors.WrapTransient(xerrors.ErrNoConnection, "wampnet", "Publish", target.String())
	}
	return nil
}

func (c *WampConnection) publishMessageType() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isServer {
		return msgEvent
	}
	return msgPublish
}

// Subscribe asks the remote endpoint to start delivering Events for path.
func (c *WampConnection) Subscribe(path string) bool {
	target, err := c.createUriFromPath(normalizePath(path))
	if err != nil {
		return false
	}
	return c.subscribeUri(target)
}

func (c *WampConnection) subscribeUri(target *uri.Uri) bool {
	if !c.sendMessage([]interface{}{msgSubscribe, target.String()}) {
		return false
	}
	c.mu.Lock()
	c.clientSubscribedUris = append(c.clientSubscribedUris, target)
	c.mu.Unlock()
	return true
}

// Unsubscribe asks the remote endpoint to stop delivering Events for path.
func (c *WampConnection) Unsubscribe(path string) bool {
	target, err := c.createUriFromPath(normalizePath(path))
	if err != nil {
		return false
	}
	return c.unsubscribeUri(target)
}

func (c *WampConnection) unsubscribeUri(target *uri.Uri) bool {
	if !c.sendMessage([]interface{}{msgUnsubscribe, target.String()}) {
		return false
	}
	c.mu.Lock()
	for i, u := range c.clientSubscribedUris {
		if u.String() == target.String() {
			c.clientSubscribedUris = append(c.clientSubscribedUris[:i], c.clientSubscribedUris[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return true
}

// Welcome sends a Welcome message carrying a freshly generated session id
// and switches this connection into server mode. Returns false if a
// session id could not be generated or the frame could not be sent.
func (c *WampConnection) Welcome() bool {
	sessionId, err := generateSessionId()
	if err != nil {
		c.logf("failed to generate session id: %v", err)
		return false
	}
	return c.WelcomeWithSessionId(sessionId)
}

// WelcomeWithSessionId is Welcome with an explicit session id, e.g. when
// resuming a session across a reconnect.
func (c *WampConnection) WelcomeWithSessionId(sessionId string) bool {
	c.setSessionId(sessionId)
	c.mu.Lock()
	c.isServer = true
	identity := c.identity
	c.mu.Unlock()
	if !c.sendMessage([]interface{}{msgWelcome, sessionId, wampVersion, identity}) {
		return false
	}
	c.setIsReady(c, true)
	return true
}

// createUri parses rawUri, expanding a leading "prefix:" CURIE against any
// prefix registered via a received Prefix message. Returns an error if the
// string does not parse as a URI.
func (c *WampConnection) createUri(rawUri string) (*uri.Uri, error) {
	if name, rest, found := strings.Cut(rawUri, ":"); found {
		c.mu.Lock()
		expansion, known := c.prefixes[name]
		c.mu.Unlock()
		if known {
			rawUri = expansion + rest
		}
	}
	return uri.Parse(rawUri)
}

// createUriFromPath builds a wamp:// URI addressed at this connection's
// host, with path as its resource path and this connection's user account
// attached.
func (c *WampConnection) createUriFromPath(path string) (*uri.Uri, error) {
	target, err := uri.New("wamp", c.GetHostname(), path)
	if err != nil {
		return nil, xerrors.WrapInvalid(err, "wampnet", "createUriFromPath", path)
	}
	target.SetPort(uri.DefaultPort)
	target.SetUser(c.GetUserAccount())
	return target, nil
}

// makeCallError renders a CallError frame. methodUri's fragment is
// replaced with errorCode for the wire representation. If the result
// cannot be marshaled (which is not expected for any value produced by
// this package), a literal fallback frame is returned instead.
func (c *WampConnection) makeCallError(methodUri *uri.Uri, callId, errorCode, description string, details interface{}) string {
	errUri := uri.Copy(methodUri)
	errUri.SetFragment(errorCode)
	message := []interface{}{msgCallError, callId, errUri.String(), description}
	if details != nil {
		message = append(message, details)
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Sprintf(`[%d, %q, "wamp://%s/error#runtime_error", "runtime error"]`,
			msgCallError, callId, c.GetHostname())
	}
	return string(data)
}

// makeCallResult renders a CallResult frame. WAMP v1 only has room for a
// single result value, so multiple returned values are collapsed into a
// JSON array, a single value is sent bare, and no values sends null.
func (c *WampConnection) makeCallResult(methodUri *uri.Uri, callId string, values []interface{}) string {
	var result interface{}
	switch len(values) {
	case 0:
		result = nil
	case 1:
		result = values[0]
	default:
		result = values
	}
	message := []interface{}{msgCallResult, callId, result}
	data, err := json.Marshal(message)
	if err != nil {
		return c.makeCallError(methodUri, callId, "runtime_error", "runtime error", nil)
	}
	return string(data)
}

func (c *WampConnection) processWelcome(message []interface{}) bool {
	if len(message) < 4 {
		return false
	}
	sessionId, _ := message[1].(string)
	serverId, _ := message[3].(string)
	c.setSessionId(sessionId)
	c.setServerId(serverId)
	c.setIsReady(c, true)
	return true
}

func (c *WampConnection) processPrefix(message []interface{}) bool {
	if len(message) < 3 {
		return false
	}
	prefix, _ := message[1].(string)
	expansion, _ := message[2].(string)
	c.mu.Lock()
	c.prefixes[prefix] = expansion
	c.mu.Unlock()
	return true
}

func (c *WampConnection) processCall(message []interface{}) bool {
	if len(message) < 3 {
		return false
	}
	callId, _ := message[1].(string)
	methodUriStr, _ := message[2].(string)

	methodUri, err := c.createUri(methodUriStr)
	if err != nil {
		errUri, uriErr := c.createUriFromPath("/error")
		if uriErr != nil {
			return true
		}
		c.sendRaw(c.makeCallError(errUri, callId, "rpc_error", "undefined method", nil))
		return true
	}

	request := directory.NewRequestWithType(methodUri, directory.RequestCall, message[3:]...)
	if n := c.dir.Handle(c.GetHomePath(), request); n > 0 {
		result := request.Result()
		if !result.HasErrors() {
			c.sendRaw(c.makeCallResult(methodUri, callId, result.Values()))
		} else {
			e := result.Error(0)
			c.sendRaw(c.makeCallError(methodUri, callId, "logic_error", e.Description, e.Details))
		}
	} else {
		c.sendRaw(c.makeCallError(methodUri, callId, "rpc_error", "undefined method", nil))
	}
	return true
}

func (c *WampConnection) processCallResult(message []interface{}) bool {
	if len(message) < 3 {
		return false
	}
	callId, _ := message[1].(string)
	caller, ok := c.takePendingCall(callId)
	if !ok {
		c.logf("call result with no pending call: %s", callId)
		return true
	}
	caller.OnSuccess(message[2])
	return true
}

func (c *WampConnection) processCallError(message []interface{}) bool {
	if len(message) < 4 {
		return false
	}
	callId, _ := message[1].(string)
	errorUriStr, _ := message[2].(string)
	description, _ := message[3].(string)
	var details interface{}
	if len(message) > 4 {
		details = message[4]
	}
	caller, ok := c.takePendingCall(callId)
	if !ok {
		c.logf("call error with no pending call: %s", callId)
		return true
	}
	errUri, err := uri.Parse(errorUriStr)
	if err != nil {
		caller.OnError(nil, description, details)
	} else {
		caller.OnError(errUri, description, details)
	}
	return true
}

func (c *WampConnection) takePendingCall(callId string) (Caller, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	caller, ok := c.pendingRpcCalls[callId]
	if ok {
		delete(c.pendingRpcCalls, callId)
	}
	return caller, ok
}

func (c *WampConnection) processSubscribe(message []interface{}) bool {
	if len(message) < 2 {
		return false
	}
	topicUriStr, _ := message[1].(string)
	topicUri, err := c.createUri(topicUriStr)
	if err != nil {
		return false
	}

	path := c.GetHomePath() + topicUri.Path()
	c.mu.Lock()
	already := containsString(c.serverSubscribedPaths, path)
	c.mu.Unlock()
	if already {
		return true
	}

	handler := NewRelayHandler(c.relayHandlerName(path), c, topicUri)
	if err := c.dir.AddHandler(path, handler); err == nil {
		c.mu.Lock()
		c.serverSubscribedPaths = append(c.serverSubscribedPaths, path)
		c.mu.Unlock()
	}
	return true
}

func (c *WampConnection) processUnsubscribe(message []interface{}) bool {
	if len(message) < 2 {
		return false
	}
	topicUriStr, _ := message[1].(string)
	topicUri, err := c.createUri(topicUriStr)
	if err != nil {
		return false
	}

	path := c.GetHomePath() + topicUri.Path()
	c.dir.RemoveHandler(path, c.relayHandlerName(path))
	c.mu.Lock()
	c.serverSubscribedPaths = removeString(c.serverSubscribedPaths, path)
	c.mu.Unlock()
	return true
}

func (c *WampConnection) processPublish(message []interface{}) bool {
	if len(message) < 3 {
		return false
	}
	topicUriStr, _ := message[1].(string)
	topicUri, err := c.createUri(topicUriStr)
	if err != nil {
		return false
	}

	request := directory.NewRequestWithType(topicUri, directory.RequestPublish, message[2])
	if len(message) > 3 {
		switch v := message[3].(type) {
		case bool:
			if v {
				topicUri.SetParameter("exclude", c.GetSessionId())
			}
		case []interface{}:
			if ids := toStringSlice(v); len(ids) > 0 {
				topicUri.SetParameter("exclude", strings.Join(ids, ","))
			}
		}
		if len(message) > 4 {
			if arr, ok := message[4].([]interface{}); ok {
				if ids := toStringSlice(arr); len(ids) > 0 {
					topicUri.SetParameter("eligible", strings.Join(ids, ","))
				}
			}
		}
	}
	c.dir.Handle(c.GetHomePath(), request)
	return true
}

// processEvent dispatches an Event the same way processPublish dispatches
// a Publish. This intentionally accepts events for topics this connection
// never explicitly subscribed to: subscriptions may be wildcards, and the
// remote endpoint, not this side, is the authority on what matches them.
func (c *WampConnection) processEvent(message []interface{}) bool {
	if len(message) < 3 {
		return false
	}
	topicUriStr, _ := message[1].(string)
	topicUri, err := c.createUri(topicUriStr)
	if err != nil {
		return false
	}
	request := directory.NewRequestWithType(topicUri, directory.RequestPublish, message[2])
	c.dir.Handle(c.GetHomePath(), request)
	return true
}

func (c *WampConnection) relayHandlerName(path string) string {
	if c.GetUserAccount() == "" {
		return path + "->@" + c.GetSessionId()
	}
	return path + "->" + c.GetUserAccount() + "@" + c.GetSessionId()
}

// unsubscribeAll tears down every subscription this connection holds, in
// either direction: client-side subscriptions are unwound with real
// Unsubscribe frames to the remote endpoint, and server-side subscriptions
// (remote endpoints subscribed to us) have their relay handlers removed
// from the directory directly, with no frame sent.
func (c *WampConnection) unsubscribeAll() {
	c.mu.Lock()
	clientUris := c.clientSubscribedUris
	c.clientSubscribedUris = nil
	serverPaths := c.serverSubscribedPaths
	c.serverSubscribedPaths = nil
	c.mu.Unlock()

	for _, u := range clientUris {
		c.unsubscribeUri(u)
	}
	for _, path := range serverPaths {
		c.dir.RemoveHandler(path, c.relayHandlerName(path))
	}
}

func (c *WampConnection) sendMessage(message []interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		c.logf("failed to marshal frame: %v", err)
		return false
	}
	return c.sendRaw(string(data))
}

func (c *WampConnection) sendRaw(frame string) bool {
	return c.sender.SendText(frame)
}

func (c *WampConnection) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Debug(fmt.Sprintf(format, args...))
	}
}

func generateSessionId() (string, error) {
	buf := make([]byte, sessionIdByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", xerrors.WrapFatal(err, "wampnet", "generateSessionId", "read random bytes")
	}
	return base32NoPad.EncodeToString(buf), nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func toStringSlice(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func removeString(values []string, target string) []string {
	for i, v := range values {
		if v == target {
			return append(values[:i], values[i+1:]...)
		}
	}
	return values
}
