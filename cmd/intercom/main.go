// Command intercom runs a standalone WAMP v1 peer: a WebSocket listener
// dispatching Call and Publish requests into a directory.Directory, with
// Prometheus metrics and health-check HTTP endpoints alongside it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunaoezer/Intercom/config"
	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/health"
	"github.com/tunaoezer/Intercom/metric"
	"github.com/tunaoezer/Intercom/pkg/worker"
	"github.com/tunaoezer/Intercom/registry"
	"github.com/tunaoezer/Intercom/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "intercom:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	sl := newSlogLogger(f.LogLevel)

	loader := config.NewLoader()
	if f.ConfigPath != "" {
		loader.AddLayer(f.ConfigPath)
	}
	loader.EnableValidation(true)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	f.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if f.ValidateOnly {
		sl.Info("configuration is valid", "config", cfg.String())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := connectNATS(ctx, cfg.NATS)
	if err != nil {
		sl.Warn("NATS log side-channel unavailable, continuing without it", "error", err)
	}
	if nc != nil {
		defer nc.Close()
	}
	transportLog := newComponentLogger("transport", nc, sl)

	dir := directory.NewDirectory()
	connections := registry.NewConnectionRegistry()
	services := registry.NewServiceRegistry(dir, connections)
	metricsRegistry := metric.NewMetricsRegistry()
	healthMonitor := health.NewMonitor()

	echoPool := worker.NewPool[echoJob](4, 256, processEchoJob,
		worker.WithMetricsRegistry[echoJob](metricsRegistry, "demo_echo"))
	if err := echoPool.Start(ctx); err != nil {
		return fmt.Errorf("start demo worker pool: %w", err)
	}

	if err := registerDemoService(services, echoPool); err != nil {
		return fmt.Errorf("register demo service: %w", err)
	}

	transportServer := transport.NewServer(
		transport.Config{
			ListenAddr:     cfg.Transport.ListenAddr,
			Path:           cfg.Transport.Path,
			HomePathPrefix: cfg.Transport.HomePathPrefix,
			ServerIdentity: cfg.Transport.ServerIdentity,
			RateLimit:      rate.Limit(cfg.Transport.RateLimit),
			RateLimitBurst: cfg.Transport.RateLimitBurst,
		},
		dir, connections,
		transport.WithMetrics(metricsRegistry),
		transport.WithHealth(healthMonitor),
		transport.WithLogger(transportLog),
	)
	if err := transportServer.Start(ctx); err != nil {
		return fmt.Errorf("start transport server: %w", err)
	}
	sl.Info("transport listening", "addr", cfg.Transport.ListenAddr, "path", cfg.Transport.Path)

	var metricsServer *metric.Server
	if cfg.Metrics.ListenAddr != "" {
		port, err := portFromAddr(cfg.Metrics.ListenAddr)
		if err != nil {
			return fmt.Errorf("metrics.listen_addr: %w", err)
		}
		metricsServer = metric.NewServer(port, cfg.Metrics.Path, metricsRegistry)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				sl.Error("metrics server stopped", "error", err)
			}
		}()
		sl.Info("metrics listening", "addr", cfg.Metrics.ListenAddr, "path", cfg.Metrics.Path)
	}

	var healthServer *http.Server
	if cfg.Health.ListenAddr != "" {
		healthServer = newHealthServer(cfg.Health.ListenAddr, cfg.Health.Path, healthMonitor)
		go func() {
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sl.Error("health server stopped", "error", err)
			}
		}()
		sl.Info("health listening", "addr", cfg.Health.ListenAddr, "path", cfg.Health.Path)
	}

	<-ctx.Done()
	sl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := transportServer.Stop(shutdownTimeout); err != nil {
		sl.Error("transport shutdown error", "error", err)
	}
	if err := echoPool.Stop(shutdownTimeout); err != nil {
		sl.Error("worker pool shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			sl.Error("metrics server shutdown error", "error", err)
		}
	}
	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			sl.Error("health server shutdown error", "error", err)
		}
	}
	return nil
}

// portFromAddr extracts the numeric port from a "host:port" listen
// address, as required by metric.NewServer's port-based configuration.
func portFromAddr(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

// newHealthServer builds a minimal JSON health endpoint over monitor,
// mirroring the shape of metric.Server's own embedded health check but
// reporting every registered component rather than a single OK.
func newHealthServer(addr, path string, monitor *health.Monitor) *http.Server {
	if path == "" {
		path = "/health"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		statuses := monitor.GetAll()
		overall := monitor.AggregateHealth("intercom")
		w.Header().Set("Content-Type", "application/json")
		if !overall.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(struct {
			Overall    health.Status            `json:"overall"`
			Components map[string]health.Status `json:"components"`
		}{Overall: overall, Components: statuses})
	})
	return &http.Server{Addr: addr, Handler: mux}
}
