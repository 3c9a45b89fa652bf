// Package search implements the udisc search CLI entry point.
package search

import (
	"context"
	"fmt"
	"time"

	"udisc/pkg/config"
	"udisc/pkg/logger"
	"udisc/pkg/udisc"
)

// Run blocks until a service of the requested kind is found and prints it.
func Run(configPath string, args []string) error {
	kind := ""
	var timeout time.Duration

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--timeout" && i+1 < len(args):
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", args[i+1], err)
			}
			timeout = d
			i++
		case kind == "":
			kind = args[i]
		default:
			return fmt.Errorf("usage: udisc search <kind> [--timeout <duration>]")
		}
	}
	if kind == "" {
		return fmt.Errorf("usage: udisc search <kind> [--timeout <duration>]")
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Endpoint.LogLevel)

	ep, err := udisc.New(cfg.Endpoint.Name).
		Search(kind).
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

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	svc, err := ep.FindService(ctx, kind)
	if err != nil {
		return err
	}

	fmt.Printf("Found %q service hosted by %q at %s:%d\n", svc.Kind, svc.Name, svc.Addr, svc.Port)
	return nil
}
