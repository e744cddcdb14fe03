package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/registry"
)

// newTestServer wires a Server around a *directory.Directory exposing a
// single RPC method at /echo, and returns an httptest.Server dialing
// straight into the Server's upgrade handler so tests don't need a real
// bound port.
func newTestServer(t *testing.T) (*httptest.Server, *directory.Directory) {
	t.Helper()
	dir := directory.NewDirectory()
	require.NoError(t, dir.AddHandler("/echo", directory.NewMethodHandler("echo",
		func(request *directory.Request, arguments []interface{}) ([]interface{}, error) {
			return arguments, nil
		})))

	connections := registry.NewConnectionRegistry()
	srv := NewServer(Config{Path: "/wamp"}, dir, connections)

	mux := http.NewServeMux()
	mux.HandleFunc("/wamp", srv.handleUpgrade)
	httpSrv := httptest.NewServer(mux)
	t.Cleanup(httpSrv.Close)
	return httpSrv, dir
}

func dialURL(httpSrv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/wamp"
}

func TestServer_HandleUpgrade_WelcomesClientAndDispatchesCall(t *testing.T) {
	httpSrv, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(dialURL(httpSrv), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var welcome []interface{}
	require.NoError(t, json.Unmarshal(data, &welcome))
	require.Len(t, welcome, 4)
	assert.Equal(t, float64(0), welcome[0]) // msgWelcome

	call := []interface{}{2, "call-1", "/echo", "hello"}
	payload, err := json.Marshal(call)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	var result []interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result, 3)
	assert.Equal(t, float64(3), result[0]) // msgCallResult
	assert.Equal(t, "call-1", result[1])
	assert.Equal(t, "hello", result[2])
}

func TestServer_HandleUpgrade_MalformedFrameDoesNotCrashConnection(t *testing.T) {
	httpSrv, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(dialURL(httpSrv), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage() // welcome
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	call := []interface{}{2, "call-2", "/echo", "still alive"}
	payload, err := json.Marshal(call)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var result []interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result, 3)
	assert.Equal(t, "call-2", result[1])
}

func TestServer_StartAndStop_ReleasesListener(t *testing.T) {
	dir := directory.NewDirectory()
	connections := registry.NewConnectionRegistry()
	srv := NewServer(Config{ListenAddr: "127.0.0.1:0", Path: "/wamp"}, dir, connections)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	require.NoError(t, srv.Stop(time.Second))
}
