// udisc — UDP multicast service discovery
//
// Usage:
//
//	udisc host <kind> <port>  — announce a hosted service
//	udisc search <kind>       — find a service and print where it lives
//	udisc watch               — record every discovered service
//	udisc list                — query a running watch daemon
package main

import (
	"fmt"
	"os"

	"udisc/cmd/host"
	"udisc/cmd/list"
	"udisc/cmd/search"
	"udisc/cmd/watch"
)

const (
	defaultSystemPath = "/etc/udisc/config.toml"
	defaultLocalPath  = "config.toml"
	version           = "0.2.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	// Parse --config flag if present
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			i--
			continue
		}
		if len(arg) > 9 && arg[:9] == "--config=" {
			configPath = arg[9:]
			args = append(args[:i], args[i+1:]...)
			i--
			continue
		}
	}

	// Auto-discover config if not specified
	if configPath == "" {
		if _, err := os.Stat(defaultLocalPath); err == nil {
			configPath = defaultLocalPath
		} else {
			configPath = defaultSystemPath
		}
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	var err error

	switch subcommand {
	case "host":
		err = host.Run(configPath, args[1:])
	case "search":
		err = search.Run(configPath, args[1:])
	case "watch":
		err = watch.Run(configPath)
	case "list":
		err = list.Run(configPath)
	case "edit":
		err = watch.EditConfig(configPath)
	case "version":
		fmt.Printf("udisc v%s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`udisc v%s — UDP multicast service discovery

Usage:
  udisc <command> [--config <path>]

Commands:
  host <kind> <port>           Announce a hosted service until interrupted
  search <kind> [--timeout d]  Block until the service is found and print it
  watch                        Record every discovered service (daemon)
  list                         Query a running watch daemon
  edit                         Edit the configuration file in your system editor
  version                      Print version information
  help                         Show this help message

Options:
  --config <path>  Path to config file (default: looks for ./config.toml, then %s)

Examples:
  udisc host hello 4112                 # Offer "hello" on port 4112
  udisc search hello --timeout 30s      # Wait up to 30s for a "hello" host
  udisc watch                           # Record discoveries, serve RPC socket

`, version, defaultSystemPath)
}
