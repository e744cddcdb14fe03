package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

type fakeConnection struct {
	ready     bool
	sessionId string
	homePath  string
}

func (c *fakeConnection) IsReady() bool         { return c.ready }
func (c *fakeConnection) GetSessionId() string  { return c.sessionId }
func (c *fakeConnection) GetHomePath() string   { return c.homePath }
func (c *fakeConnection) Subscribe(_ string) bool   { return true }
func (c *fakeConnection) Unsubscribe(_ string) bool { return true }

type recordingListener struct {
	connected    []Connection
	disconnected []Connection
}

func (l *recordingListener) OnConnect(conn Connection)    { l.connected = append(l.connected, conn) }
func (l *recordingListener) OnDisconnect(conn Connection) { l.disconnected = append(l.disconnected, conn) }

func TestConnectionRegistry_Add_RejectsNotReadyConnection(t *testing.T) {
	r := NewConnectionRegistry()
	conn := &fakeConnection{ready: false}
	err := r.Add(conn)
	assert.ErrorIs(t, err, xerrors.ErrNotReady)
	assert.Equal(t, 0, r.NumConnections())
}

func TestConnectionRegistry_Add_IsIdempotent(t *testing.T) {
	r := NewConnectionRegistry()
	conn := &fakeConnection{ready: true, sessionId: "s1"}
	require.NoError(t, r.Add(conn))
	require.NoError(t, r.Add(conn))
	assert.Equal(t, 1, r.NumConnections())
}

func TestConnectionRegistry_AddAndRemove_NotifyListeners(t *testing.T) {
	r := NewConnectionRegistry()
	listener := &recordingListener{}
	r.AddListener(listener)

	conn := &fakeConnection{ready: true, sessionId: "s1"}
	require.NoError(t, r.Add(conn))
	require.Len(t, listener.connected, 1)
	assert.Same(t, conn, listener.connected[0].(*fakeConnection))

	r.Remove(conn)
	require.Len(t, listener.disconnected, 1)
	assert.Equal(t, 0, r.NumConnections())
}

func TestConnectionRegistry_Remove_UnregisteredConnectionIsNoop(t *testing.T) {
	r := NewConnectionRegistry()
	listener := &recordingListener{}
	r.AddListener(listener)

	r.Remove(&fakeConnection{ready: true})
	assert.Empty(t, listener.disconnected)
}

func TestConnectionRegistry_Connections_ReturnsSnapshot(t *testing.T) {
	r := NewConnectionRegistry()
	c1 := &fakeConnection{ready: true, sessionId: "s1"}
	c2 := &fakeConnection{ready: true, sessionId: "s2"}
	require.NoError(t, r.Add(c1))
	require.NoError(t, r.Add(c2))

	conns := r.Connections()
	assert.Len(t, conns, 2)
}

func TestDefaultConnections_ReturnsSingleton(t *testing.T) {
	assert.Same(t, DefaultConnections(), DefaultConnections())
}
