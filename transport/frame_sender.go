package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// wsFrameSender adapts a *websocket.Conn to wampnet.FrameSender. gorilla's
// websocket.Conn panics on concurrent writes from multiple goroutines, so
// every send is serialized through writeMutex, matching the teacher's
// clientInfo.writeMutex discipline.
type wsFrameSender struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
	metrics    *Metrics
}

func newFrameSender(conn *websocket.Conn, metrics *Metrics) *wsFrameSender {
	return &wsFrameSender{conn: conn, metrics: metrics}
}

func (s *wsFrameSender) SendText(text string) bool {
	return s.send(websocket.TextMessage, []byte(text))
}

func (s *wsFrameSender) SendBinary(data []byte) bool {
	return s.send(websocket.BinaryMessage, data)
}

func (s *wsFrameSender) send(messageType int, data []byte) bool {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		s.metrics.errorOccurred("write")
		return false
	}
	s.metrics.frameSent()
	return true
}
