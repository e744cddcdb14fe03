package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addResult struct {
	Sum int `json:"sum"`
}

func TestRemoteMethod_Call_DirectTypeAssertion(t *testing.T) {
	conn := &fakeConn{}
	method := NewRemoteMethod[float64](conn, "/add", time.Second)

	go func() {
		require.Eventually(t, func() bool { return conn.caller != nil }, time.Second, time.Millisecond)
		conn.caller.OnSuccess(float64(7))
	}()

	result, err := method.Call(3, 4)
	require.NoError(t, err)
	assert.Equal(t, float64(7), result)
}

func TestRemoteMethod_Call_CoercesViaJsonRoundTrip(t *testing.T) {
	conn := &fakeConn{}
	method := NewRemoteMethod[addResult](conn, "/add", time.Second)

	go func() {
		require.Eventually(t, func() bool { return conn.caller != nil }, time.Second, time.Millisecond)
		conn.caller.OnSuccess(map[string]interface{}{"sum": 7})
	}()

	result, err := method.Call(3, 4)
	require.NoError(t, err)
	assert.Equal(t, addResult{Sum: 7}, result)
}

func TestRemoteMethod_Call_NilResultReturnsZeroValue(t *testing.T) {
	conn := &fakeConn{}
	method := NewRemoteMethod[addResult](conn, "/add", time.Second)

	go func() {
		require.Eventually(t, func() bool { return conn.caller != nil }, time.Second, time.Millisecond)
		conn.caller.OnSuccess(nil)
	}()

	result, err := method.Call()
	require.NoError(t, err)
	assert.Equal(t, addResult{}, result)
}

func TestRemoteMethod_Call_PropagatesRemoteError(t *testing.T) {
	conn := &fakeConn{}
	method := NewRemoteMethod[float64](conn, "/fail", time.Second)

	go func() {
		require.Eventually(t, func() bool { return conn.caller != nil }, time.Second, time.Millisecond)
		conn.caller.OnError(nil, "boom", nil)
	}()

	_, err := method.Call()
	require.Error(t, err)
	ce, ok := err.(*CallError)
	require.True(t, ok)
	assert.Equal(t, ReasonRemoteError, ce.Reason)
}

func TestRemoteMethod_CallAsync_ReturnsCallObjectForManualWait(t *testing.T) {
	conn := &fakeConn{}
	method := NewRemoteMethod[float64](conn, "/add", time.Second)

	call := method.CallAsync(1, 2)
	require.Eventually(t, func() bool { return conn.caller != nil }, time.Second, time.Millisecond)
	conn.caller.OnSuccess(float64(3))

	result, err := call.Wait(time.Second)
	require.NoError(t, err)
	assert.Equal(t, float64(3), result)
}
