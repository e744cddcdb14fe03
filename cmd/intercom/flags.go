package main

import (
	"flag"
	"fmt"

	"github.com/tunaoezer/Intercom/config"
)

// flags holds the command-line overrides layered on top of the JSON
// config file and environment variables, in that order of increasing
// precedence.
type flags struct {
	ConfigPath   string
	ListenAddr   string
	MetricsAddr  string
	HealthAddr   string
	LogLevel     string
	ValidateOnly bool
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("intercom", flag.ContinueOnError)

	f := &flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "path to the JSON configuration file")
	fs.StringVar(&f.ListenAddr, "listen", "", "override transport.listen_addr")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "override metrics.listen_addr")
	fs.StringVar(&f.HealthAddr, "health-addr", "", "override health.listen_addr")
	fs.StringVar(&f.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&f.ValidateOnly, "validate", false, "load and validate configuration, then exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch f.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid -log-level %q", f.LogLevel)
	}

	return f, nil
}

// applyOverrides layers non-empty flag values onto cfg after it has been
// loaded from file and environment.
func (f *flags) applyOverrides(cfg *config.Config) {
	if f.ListenAddr != "" {
		cfg.Transport.ListenAddr = f.ListenAddr
	}
	if f.MetricsAddr != "" {
		cfg.Metrics.ListenAddr = f.MetricsAddr
	}
	if f.HealthAddr != "" {
		cfg.Health.ListenAddr = f.HealthAddr
	}
}
