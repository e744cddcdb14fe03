// Package rpc provides client-side sugar over wampnet's raw, callback-based
// Call: a synchronous or asynchronous call object with a timeout and a
// typed result.
package rpc

import (
	"sync"
	"time"

	xerrors "github.com/tunaoezer/Intercom/errors"
	"github.com/tunaoezer/Intercom/uri"
	"github.com/tunaoezer/Intercom/wampnet"
)

// DefaultTimeout is used by Call/Wait when no timeout is specified.
const DefaultTimeout = 120 * time.Second

// State is the lifecycle of a RemoteMethodCall.
type State int

const (
	// Initialized is the state before CallAsync has been invoked.
	Initialized State = iota
	// InProgress is the state after the call has been sent and before a
	// result or error has arrived.
	InProgress
	// Completed is the state once a result, error, or timeout has been
	// recorded. A RemoteMethodCall never leaves this state.
	Completed
)

// Reason classifies why a RemoteMethodCall did not produce a result.
type Reason int

const (
	// ReasonCallError means the call could not be sent, e.g. the
	// connection rejected it or a frame could not be written.
	ReasonCallError Reason = iota
	// ReasonRemoteError means the remote endpoint returned a CallError.
	ReasonRemoteError
	// ReasonTimeout means no response arrived before the deadline.
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonRemoteError:
		return "remote error"
	case ReasonTimeout:
		return "timeout"
	default:
		return "call error"
	}
}

// CallError reports why a remote method call failed. ErrorUri and Details
// are only populated for ReasonRemoteError, carrying whatever the remote
// endpoint's CallError frame specified.
type CallError struct {
	Reason      Reason
	ErrorUri    *uri.Uri
	Description string
	Details     interface{}
}

func (e *CallError) Error() string {
	return e.Reason.String() + ": " + e.Description
}

// RemoteMethodCall drives one RPC call: issuing it, and waiting for
// wampnet to deliver a CallResult or CallError frame back via OnSuccess or
// OnError. It implements wampnet.Caller so it can be passed directly as
// the callback argument to Connection.Call.
type RemoteMethodCall struct {
	mu         sync.Mutex
	state      State
	conn       Connection
	methodPath string
	arguments  []interface{}
	done       chan struct{}
	result     interface{}
	callErr    *CallError
}

// Connection is the subset of wampnet.Connection a RemoteMethodCall needs
// to issue its call.
type Connection interface {
	Call(path string, caller wampnet.Caller, arguments ...interface{}) error
}

// NewRemoteMethodCall constructs a call to methodPath over conn, not yet
// sent. Call CallAsync or Call to send it.
func NewRemoteMethodCall(conn Connection, methodPath string, arguments ...interface{}) *RemoteMethodCall {
	return &RemoteMethodCall{
		conn:       conn,
		methodPath: methodPath,
		arguments:  arguments,
		done:       make(chan struct{}),
	}
}

// CallAsync sends the call and returns immediately; the result becomes
// available through Wait. Calling CallAsync more than once returns an
// error without resending.
func (c *RemoteMethodCall) CallAsync() error {
	c.mu.Lock()
	if c.state != Initialized {
		c.mu.Unlock()
		return xerrors.WrapInvalid(xerrors.ErrAlreadyStarted, "rpc", "CallAsync", c.methodPath)
	}
	c.state = InProgress
	c.mu.Unlock()

	if err := c.conn.Call(c.methodPath, c, c.arguments...); err != nil {
		c.mu.Lock()
		if c.state != Completed {
			c.state = Completed
			c.callErr = &CallError{Reason: ReasonCallError, Description: err.Error()}
			c.mu.Unlock()
			close(c.done)
			return nil
		}
		c.mu.Unlock()
	}
	return nil
}

// Call sends the call and blocks until it completes or timeout elapses. A
// non-positive timeout uses DefaultTimeout.
func (c *RemoteMethodCall) Call(timeout time.Duration) (interface{}, error) {
	if err := c.CallAsync(); err != nil {
		return nil, err
	}
	return c.Wait(timeout)
}

// Wait blocks until the call this RemoteMethodCall was constructed for
// completes or timeout elapses. A non-positive timeout uses
// DefaultTimeout. Wait may be called only after CallAsync or Call.
func (c *RemoteMethodCall) Wait(timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return c.outcome()
	case <-timer.C:
		c.mu.Lock()
		if c.state != Completed {
			c.state = Completed
			c.callErr = &CallError{Reason: ReasonTimeout, Description: "call timed out"}
			c.mu.Unlock()
			close(c.done)
			return c.outcome()
		}
		c.mu.Unlock()
		// The call completed in the window between the timer firing and
		// this goroutine acquiring the lock.
		return c.outcome()
	}
}

func (c *RemoteMethodCall) outcome() (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.callErr != nil {
		return nil, c.callErr
	}
	return c.result, nil
}

// State returns the call's current lifecycle state.
func (c *RemoteMethodCall) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnSuccess implements wampnet.Caller.
func (c *RemoteMethodCall) OnSuccess(result interface{}) {
	c.mu.Lock()
	if c.state == Completed {
		c.mu.Unlock()
		return
	}
	c.state = Completed
	c.result = result
	c.mu.Unlock()
	close(c.done)
}

// OnError implements wampnet.Caller.
func (c *RemoteMethodCall) OnError(errorUri *uri.Uri, description string, details interface{}) {
	c.mu.Lock()
	if c.state == Completed {
		c.mu.Unlock()
		return
	}
	c.state = Completed
	c.callErr = &CallError{Reason: ReasonRemoteError, ErrorUri: errorUri, Description: description, Details: details}
	c.mu.Unlock()
	close(c.done)
}
