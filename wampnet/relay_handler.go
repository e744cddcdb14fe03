package wampnet

import (
	"strings"

	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/uri"
)

// relayPublisher is the subset of WampConnection a RelayHandler needs:
// enough to decide whether a request is eligible for this session and to
// send it on. Matches against an interface, not *WampConnection directly,
// so relay handlers can be driven by test doubles.
type relayPublisher interface {
	GetSessionId() string
	PublishUri(target *uri.Uri, data interface{}, opts ...PublishOption) error
}

// RelayHandler forwards publish requests to a remote endpoint over a
// connection, subject to the eligible/exclude filtering carried in the
// publish request's own URI. It never relays Call requests.
//
// Request URIs are rewritten to the handler's own relay URI before being
// sent, so that a caller's directory path never leaks to a remote
// endpoint whose directory is laid out differently. When installed as a
// catch-all (the relay path ends in "/*"), the path remainder from the
// catch-all match is appended to the relay URI, giving the remote
// endpoint the full context of which descendant was targeted.
type RelayHandler struct {
	directory.BaseHandler
	connection relayPublisher
	relayUri   *uri.Uri
}

// NewRelayHandler constructs a RelayHandler that relays requests to
// relayUri over connection. If relayUri's path ends in "/*", the handler
// is installed as a catch-all and the trailing wildcard marker is
// stripped from the stored relay URI.
func NewRelayHandler(name string, connection relayPublisher, relayUri *uri.Uri) *RelayHandler {
	catchAll := strings.HasSuffix(relayUri.Path(), "/*")
	base := directory.NewBaseHandler(name)
	if catchAll {
		base = directory.NewBaseCatchAllHandler(name)
		relayUri = changePath(relayUri, strings.TrimSuffix(relayUri.Path(), "*"))
	}
	return &RelayHandler{BaseHandler: base, connection: connection, relayUri: relayUri}
}

// Handle relays request using this handler's relay URI unchanged.
func (h *RelayHandler) Handle(request *directory.Request) {
	h.relay(h.relayUri, request)
}

// HandleCatchAll relays request to the relay URI extended with
// pathRemainder.
func (h *RelayHandler) HandleCatchAll(pathRemainder string, request *directory.Request) {
	h.relay(changePath(h.relayUri, h.relayUri.Path()+pathRemainder), request)
}

// relay only forwards Publish requests carrying exactly one argument,
// matching the wire protocol's Event frame shape. Call requests and
// multi-argument or argument-less publishes are silently dropped: there
// is no wire representation to relay them as.
func (h *RelayHandler) relay(relayUri *uri.Uri, request *directory.Request) {
	if request.RequestType() != directory.RequestPublish || request.NumArguments() != 1 {
		return
	}
	requestUri := request.Uri()
	sessionId := h.connection.GetSessionId()
	if requestUri.HasParameter("eligible") && !sessionMatches(requestUri.GetParameter("eligible"), sessionId) {
		return
	}
	if requestUri.HasParameter("exclude") && sessionMatches(requestUri.GetParameter("exclude"), sessionId) {
		return
	}
	_ = h.connection.PublishUri(relayUri, request.Argument(0))
}

// sessionMatches reports whether sessionId appears in a comma-separated
// list of session ids.
func sessionMatches(sessionIdList, sessionId string) bool {
	if sessionIdList == sessionId {
		return true
	}
	for _, id := range strings.Split(sessionIdList, ",") {
		if id == sessionId {
			return true
		}
	}
	return false
}

// changePath returns a copy of u with its path replaced by newPath.
func changePath(u *uri.Uri, newPath string) *uri.Uri {
	cp := uri.Copy(u)
	cp.SetPath(newPath)
	return cp
}
