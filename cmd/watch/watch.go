// Package watch implements the udisc watch daemon: a searching endpoint
// that records every discovery into the registry and serves the RPC socket
// queried by `udisc list`.
package watch

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"udisc/internal/registry"
	"udisc/internal/rpc"
	"udisc/pkg/config"
	"udisc/pkg/logger"
	"udisc/pkg/udisc"
)

// Run starts the watch daemon.
func Run(configPath string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Endpoint.LogLevel)

	if len(cfg.Watch.Kinds) == 0 {
		return fmt.Errorf("watch.kinds must be set in config (the service kinds to watch for)")
	}

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Watch.DBPath)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	// Ensure RPC socket directory exists
	sockDir := filepath.Dir(cfg.Watch.RPCSocket)
	if err := os.MkdirAll(sockDir, 0700); err != nil {
		return fmt.Errorf("creating socket directory %s: %w", sockDir, err)
	}

	reg, err := registry.New(cfg.Watch.DBPath, log)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	defer reg.Close()

	staleThreshold, err := cfg.Watch.ParseStaleThreshold()
	if err != nil {
		return fmt.Errorf("parsing stale threshold: %w", err)
	}
	reg.RunExpiry(5*time.Second, staleThreshold)

	if err := rpc.StartServer(cfg.Watch.RPCSocket, reg, log); err != nil {
		return fmt.Errorf("starting RPC server: %w", err)
	}

	builder := udisc.New(cfg.Endpoint.Name).
		Addr(cfg.Endpoint.Addr).
		Group(cfg.Endpoint.Group, cfg.Endpoint.Port).
		Interface(cfg.Endpoint.Interface).
		TTL(cfg.Endpoint.TTL).
		Loopback(cfg.Endpoint.LoopbackEnabled()).
		Secret(cfg.Endpoint.SharedSecret).
		Logger(log)
	for _, kind := range cfg.Watch.Kinds {
		builder = builder.Search(kind)
	}

	ep, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building endpoint: %w", err)
	}

	log.Info().
		Strs("kinds", cfg.Watch.Kinds).
		Str("db_path", cfg.Watch.DBPath).
		Msg("Watching for services")

	go func() {
		for svc := range ep.Services() {
			if err := reg.Upsert(svc); err != nil {
				log.Error().Err(err).Msg("Registry write error")
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info().Str("signal", sig.String()).Msg("Shutting down")
	ep.Close()
	os.Remove(cfg.Watch.RPCSocket)
	return nil
}
