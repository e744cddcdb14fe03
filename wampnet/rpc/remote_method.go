package rpc

import (
	"encoding/json"
	"time"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// RemoteMethod is a typed, reusable handle to a single RPC method path.
// Where RemoteMethodCall represents one in-flight call, RemoteMethod
// represents the method itself and can issue any number of calls against
// it, each producing a value of type T.
type RemoteMethod[T any] struct {
	conn       Connection
	methodPath string
	timeout    time.Duration
}

// NewRemoteMethod constructs a RemoteMethod bound to methodPath on conn.
// A non-positive timeout uses DefaultTimeout for every call.
func NewRemoteMethod[T any](conn Connection, methodPath string, timeout time.Duration) *RemoteMethod[T] {
	return &RemoteMethod[T]{conn: conn, methodPath: methodPath, timeout: timeout}
}

// Call issues the method synchronously with arguments and returns its
// result coerced to T, or an error describing why it did not succeed.
func (m *RemoteMethod[T]) Call(arguments ...interface{}) (T, error) {
	var zero T
	call := NewRemoteMethodCall(m.conn, m.methodPath, arguments...)
	result, err := call.Call(m.timeout)
	if err != nil {
		return zero, err
	}
	return coerce[T](result)
}

// CallAsync issues the method without blocking and returns the
// RemoteMethodCall driving it; the caller decides when and how to wait on
// it (RemoteMethodCall.Wait, or a custom select over another channel).
func (m *RemoteMethod[T]) CallAsync(arguments ...interface{}) *RemoteMethodCall {
	call := NewRemoteMethodCall(m.conn, m.methodPath, arguments...)
	_ = call.CallAsync()
	return call
}

// coerce adapts a raw RPC result (as decoded from JSON: nil, float64,
// string, bool, []interface{}, or map[string]interface{}) to T. A direct
// type assertion handles the common case where T matches the decoded
// shape exactly; otherwise the value is round-tripped through JSON so that
// T can be a concrete struct describing the result's shape.
func coerce[T any](value interface{}) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return zero, xerrors.WrapInvalid(err, "rpc", "coerce", "marshal result")
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, xerrors.WrapInvalid(err, "rpc", "coerce", "unmarshal result")
	}
	return out, nil
}
