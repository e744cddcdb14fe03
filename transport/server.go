// Package transport implements the WebSocket listener that accepts inbound
// WAMP connections, upgrading each HTTP request to a WebSocket and pairing
// it with a wampnet.WampConnection. It is the concrete FrameSender this
// system's WAMP layer is specified only against the interface of.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tunaoezer/Intercom/directory"
	xerrors "github.com/tunaoezer/Intercom/errors"
	"github.com/tunaoezer/Intercom/health"
	"github.com/tunaoezer/Intercom/logging"
	"github.com/tunaoezer/Intercom/metric"
	"github.com/tunaoezer/Intercom/registry"
	"github.com/tunaoezer/Intercom/uri"
	"github.com/tunaoezer/Intercom/wampnet"
)

const (
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	shutdownGrace = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// ListenAddr is the address the HTTP server binds, e.g. ":8080".
	ListenAddr string
	// Path is the HTTP path WebSocket upgrade requests are served at.
	Path string
	// HomePathPrefix anchors every accepted connection's directory home
	// path; each connection gets a unique child of this prefix so distinct
	// sessions never collide ("/session" yields "/session/<id>").
	HomePathPrefix string
	// ServerIdentity is advertised in this connection's Welcome frame.
	ServerIdentity string
	// RateLimit, if positive, bounds how many inbound frames per second a
	// single connection may submit; zero disables rate limiting.
	RateLimit rate.Limit
	// RateLimitBurst is the token bucket burst size paired with RateLimit.
	RateLimitBurst int
}

// Server accepts WebSocket connections on Config.Path and bridges each one
// to a wampnet.WampConnection dispatching into dir.
type Server struct {
	cfg         Config
	dir         *directory.Directory
	connections *registry.ConnectionRegistry
	metrics     *Metrics
	health      *health.Monitor
	log         *logging.Logger
	upgrader    websocket.Upgrader

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	shutdown   chan struct{}
	wg         sync.WaitGroup
}

// Option configures optional Server behavior.
type Option func(*Server)

// WithMetrics registers transport metrics into registry. Without this
// option the server reports no metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(s *Server) { s.metrics = newMetrics(registry) }
}

// WithLogger attaches a logger for connection lifecycle events.
func WithLogger(log *logging.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithHealth reports this server's listener status into monitor under the
// component name "transport", and is updated to unhealthy automatically if
// the listener fails. Without this option no health status is reported.
func WithHealth(monitor *health.Monitor) Option {
	return func(s *Server) { s.health = monitor }
}

// NewServer constructs a Server dispatching accepted connections into dir
// and registering them with connections once welcomed.
func NewServer(cfg Config, dir *directory.Directory, connections *registry.ConnectionRegistry, opts ...Option) *Server {
	if cfg.Path == "" {
		cfg.Path = "/wamp"
	}
	if cfg.HomePathPrefix == "" {
		cfg.HomePathPrefix = "/session"
	}
	if cfg.ServerIdentity == "" {
		cfg.ServerIdentity = wampnet.DefaultServerIdentity
	}
	s := &Server{
		cfg:         cfg,
		dir:         dir,
		connections: connections,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the listener in a background goroutine and returns
// without waiting for it to bind; it does not block for the server's
// lifetime. A bind failure is not returned by Start: it is logged, counted
// and, with WithHealth, reported as unhealthy.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return xerrors.Wrap(err, "transport", "Start", "context already cancelled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)
	s.httpServer = &http.Server{Addr: s.cfg.ListenAddr, Handler: mux}
	s.shutdown = make(chan struct{})
	s.running = true
	if s.health != nil {
		s.health.UpdateHealthy("transport", "listening")
	}

	s.wg.Add(1)
	go s.runServer()
	return nil
}

func (s *Server) runServer() {
	defer s.wg.Done()
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logf("listener failed: %v", err)
		s.metrics.errorOccurred("listen")
		if s.health != nil {
			s.health.UpdateUnhealthy("transport", err.Error())
		}
	}
}

// Stop gracefully shuts down the HTTP listener and waits up to timeout for
// in-flight connection goroutines to finish.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.shutdown)
	server := s.httpServer
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = shutdownGrace
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return xerrors.Wrap(err, "transport", "Stop", "shut down HTTP listener")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.logf("connection goroutines did not exit within %s", timeout)
	}
	return nil
}

// handleUpgrade upgrades an incoming HTTP request to a WebSocket and spins
// up a WampConnection bound to a unique home path under HomePathPrefix.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.errorOccurred("upgrade")
		return
	}
	s.metrics.connectionOpened()

	target, err := uri.New("wamp", r.Host, "/")
	if err != nil {
		s.metrics.errorOccurred("addressing")
		_ = conn.Close()
		return
	}

	homePath := fmt.Sprintf("%s/%s", s.cfg.HomePathPrefix, uuid.NewString())
	sender := newFrameSender(conn, s.metrics)
	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(s.cfg.RateLimit, s.cfg.RateLimitBurst)
	}

	wampOpts := []wampnet.WampOption{wampnet.WithServerIdentity(s.cfg.ServerIdentity)}
	if limiter != nil {
		wampOpts = append(wampOpts, wampnet.WithRateLimiter(limiter))
	}
	if s.log != nil {
		wampOpts = append(wampOpts, wampnet.WithLogger(s.log))
	}
	wampConn := wampnet.NewWampConnection(target, "", homePath, sender, s.dir, s.connections, wampOpts...)

	s.wg.Add(1)
	go s.serve(conn, wampConn)
}

// serve reads frames off conn until it closes or the server shuts down,
// dispatching each through wampConn.Process. Ping/pong handling keeps idle
// connections alive the same way the teacher's client maintenance loop
// does, just folded into the per-connection goroutine instead of a shared
// periodic sweep, since WAMP connections have no broadcast fan-out here.
func (s *Server) serve(conn *websocket.Conn, wampConn *wampnet.WampConnection) {
	defer s.wg.Done()
	defer func() {
		wampConn.Close()
		_ = conn.Close()
		s.metrics.connectionClosed()
		s.reportHealth()
	}()

	if !wampConn.Welcome() {
		s.metrics.errorOccurred("welcome")
		return
	}
	s.reportHealth()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.pingLoop(conn)

	for {
		select {
		case <-s.shutdown:
			return
		default:
		}
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.metrics.frameReceived()
		if !wampConn.Process(string(data)) {
			s.metrics.errorOccurred("malformed_frame")
		}
	}
}

func (s *Server) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reportHealth refreshes the "transport" health status with the current
// connection count, distinguishing an idle listener from one actually
// serving sessions.
func (s *Server) reportHealth() {
	if s.health == nil {
		return
	}
	n := s.connections.NumConnections()
	s.health.UpdateHealthy("transport", fmt.Sprintf("%d active connections", n))
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Debug(fmt.Sprintf(format, args...))
	}
}
