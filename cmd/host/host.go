// Package host implements the udisc host CLI entry point.
package host

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"udisc/pkg/config"
	"udisc/pkg/logger"
	"udisc/pkg/udisc"
)

// Run announces a hosted service until interrupted.
func Run(configPath string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: udisc host <kind> <port>")
	}
	kind := args[0]
	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[1], err)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Endpoint.LogLevel)

	ep, err := udisc.New(cfg.Endpoint.Name).
		Host(kind, uint16(port)).
		Addr(cfg.Endpoint.Addr).
		Group(cfg.Endpoint.Group, cfg.Endpoint.Port).
		Interface(cfg.Endpoint.Interface).
		TTL(cfg.Endpoint.TTL).
		Loopback(cfg.Endpoint.LoopbackEnabled()).
		Secret(cfg.Endpoint.SharedSecret).
		Logger(log).
		Build()
	if err != nil {
		return fmt.Errorf("building endpoint: %w", err)
	}
	defer ep.Close()

	id := ep.Identity()
	log.Info().
		Str("name", id.Name).
		Str("addr", id.Addr).
		Str("kind", kind).
		Uint64("port", port).
		Msg("Hosting service")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info().Str("signal", sig.String()).Msg("Shutting down")
	return nil
}
