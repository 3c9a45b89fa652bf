// Package list implements the udisc list CLI: it queries a running watch
// daemon for the services it currently knows about.
package list

import (
	"fmt"
	"time"

	"udisc/internal/rpc"
	"udisc/pkg/config"
)

// Run prints the services known to a running watch daemon.
func Run(configPath string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := rpc.NewClient(cfg.Watch.RPCSocket)
	if err != nil {
		return fmt.Errorf("connecting to watch daemon: %w\nIs 'udisc watch' running?", err)
	}
	defer client.Close()

	records, err := client.ListServices()
	if err != nil {
		return fmt.Errorf("listing services: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No services discovered yet.")
		return nil
	}

	fmt.Printf("%-16s %-16s %-21s %s\n", "KIND", "HOST", "ADDRESS", "LAST SEEN")
	for _, r := range records {
		fmt.Printf("%-16s %-16s %-21s %s\n",
			r.Service.Kind,
			r.Service.Name,
			fmt.Sprintf("%s:%d", r.Service.Addr, r.Service.Port),
			r.LastSeen.Format(time.RFC3339),
		)
	}
	return nil
}
