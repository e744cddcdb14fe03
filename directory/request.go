package directory

import (
	"github.com/tunaoezer/Intercom/uri"
)

// RequestType specifies the action requested of a directory node.
type RequestType int

const (
	// RequestUnspecified indicates an unknown or unspecified action.
	RequestUnspecified RequestType = iota

	// RequestCall executes a method and returns its result to the caller.
	RequestCall

	// RequestPublish publishes data; fire-and-forget, no value is returned.
	RequestPublish
)

const (
	paramRequestType   = "type"
	requestTypeCall    = "call"
	requestTypePublish = "publish"
)

// Request represents a request directed at a resource identified by a URI
// and represented by a directory node. The request type, arguments, and
// accumulated Result travel together as handlers along the path process it.
type Request struct {
	uri         *uri.Uri
	requestType RequestType
	arguments   []interface{}
	result      *Result
}

// NewRequest constructs a Request targeting uri, inferring the request type
// from uri's "type" query parameter (absent or unrecognized means
// RequestUnspecified).
func NewRequest(u *uri.Uri, arguments ...interface{}) *Request {
	requestType := RequestUnspecified
	if u.HasParameter(paramRequestType) {
		switch u.GetParameter(paramRequestType) {
		case requestTypePublish:
			requestType = RequestPublish
		case requestTypeCall:
			requestType = RequestCall
		}
	}
	return NewRequestWithType(u, requestType, arguments...)
}

// NewRequestWithType constructs a Request with an explicit request type,
// bypassing inference from the URI.
func NewRequestWithType(u *uri.Uri, requestType RequestType, arguments ...interface{}) *Request {
	args := make([]interface{}, len(arguments))
	copy(args, arguments)
	return &Request{
		uri:         u,
		requestType: requestType,
		arguments:   args,
		result:      NewResult(),
	}
}

// AddArgument appends a single argument.
func (r *Request) AddArgument(argument interface{}) {
	r.arguments = append(r.arguments, argument)
}

// AddArguments appends a set of arguments.
func (r *Request) AddArguments(arguments ...interface{}) {
	r.arguments = append(r.arguments, arguments...)
}

// Argument returns the argument at index, or nil if there is none.
func (r *Request) Argument(index int) interface{} {
	if index < 0 || index >= len(r.arguments) {
		return nil
	}
	return r.arguments[index]
}

// Arguments returns all request arguments.
func (r *Request) Arguments() []interface{} {
	return r.arguments
}

// NumArguments returns the number of request arguments.
func (r *Request) NumArguments() int {
	return len(r.arguments)
}

// RequestType returns the type of the request.
func (r *Request) RequestType() RequestType {
	return r.requestType
}

// SetRequestType explicitly overrides the request type.
func (r *Request) SetRequestType(requestType RequestType) {
	r.requestType = requestType
}

// Result returns the result accumulator populated by the handlers that
// process this request.
func (r *Request) Result() *Result {
	return r.result
}

// Uri returns the URI of the resource this request targets.
func (r *Request) Uri() *uri.Uri {
	return r.uri
}

// MakeRequestTypeParameter formats a "type" query parameter for
// requestType, or "" for RequestUnspecified.
func MakeRequestTypeParameter(requestType RequestType) string {
	switch requestType {
	case RequestPublish:
		return paramRequestType + "=" + requestTypePublish
	case RequestCall:
		return paramRequestType + "=" + requestTypeCall
	default:
		return ""
	}
}
