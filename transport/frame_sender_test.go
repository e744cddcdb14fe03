package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialTestPair starts a one-shot WebSocket echo-less server and returns the
// server-side *websocket.Conn (what wsFrameSender wraps) paired with a
// client conn to read off of.
func dialTestPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverCh := make(chan *websocket.Conn, 1)
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverCh <- conn
	}))
	t.Cleanup(httpSrv.Close)

	url := "ws" + httpSrv.URL[len("http"):]
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-serverCh:
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestWsFrameSender_SendText_DeliversToPeer(t *testing.T) {
	server, client := dialTestPair(t)
	sender := newFrameSender(server, nil)

	require.True(t, sender.SendText("hello"))

	client.SetReadDeadline(time.Now().Add(time.Second))
	messageType, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)
	require.Equal(t, "hello", string(data))
}

func TestWsFrameSender_SendBinary_DeliversToPeer(t *testing.T) {
	server, client := dialTestPair(t)
	sender := newFrameSender(server, nil)

	require.True(t, sender.SendBinary([]byte{1, 2, 3}))

	client.SetReadDeadline(time.Now().Add(time.Second))
	messageType, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, messageType)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestWsFrameSender_Send_ReturnsFalseOnClosedConnection(t *testing.T) {
	server, _ := dialTestPair(t)
	sender := newFrameSender(server, nil)
	server.Close()

	require.False(t, sender.SendText("too late"))
}

func TestNewMetrics_WithNilRegistry_ReturnsNil(t *testing.T) {
	require.Nil(t, newMetrics(nil))
}

func TestMetrics_NilReceiver_MethodsAreNoops(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.connectionOpened()
		m.connectionClosed()
		m.frameReceived()
		m.frameSent()
		m.errorOccurred("write")
	})
}
