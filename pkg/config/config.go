// Package config provides TOML configuration loading for udisc.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration structure.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint"`
	Watch    WatchConfig    `toml:"watch"`
}

// EndpointConfig holds settings shared by every discovery endpoint the CLI
// starts.
type EndpointConfig struct {
	Name         string `toml:"name"`
	Addr         string `toml:"addr"`
	Group        string `toml:"group"`
	Port         int    `toml:"port"`
	Interface    string `toml:"interface"`
	TTL          int    `toml:"ttl"`
	Loopback     *bool  `toml:"loopback"`
	SharedSecret string `toml:"shared_secret"`
	LogLevel     string `toml:"log_level"`
}

// WatchConfig holds settings for the watch daemon.
type WatchConfig struct {
	Kinds          []string `toml:"kinds"`
	DBPath         string   `toml:"db_path"`
	RPCSocket      string   `toml:"rpc_socket"`
	StaleThreshold string   `toml:"stale_threshold"`
}

// LoopbackEnabled reports whether the endpoint should receive its own
// multicast packets; on unless explicitly disabled.
func (e *EndpointConfig) LoopbackEnabled() bool {
	return e.Loopback == nil || *e.Loopback
}

// ParseStaleThreshold parses the watch stale threshold string to a
// time.Duration.
func (w *WatchConfig) ParseStaleThreshold() (time.Duration, error) {
	if w.StaleThreshold == "" {
		return 90 * time.Second, nil
	}
	return time.ParseDuration(w.StaleThreshold)
}

// Default returns a configuration with all defaults applied, used when no
// config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadOrDefault loads the config file at path, or returns the default
// configuration when no file exists there.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Load reads and parses a TOML config file, applying defaults for unset
// values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	cfg.Watch.DBPath = ExpandPath(cfg.Watch.DBPath)
	return cfg, nil
}

// ExpandPath expands tilde (~) to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

func applyDefaults(cfg *Config) {
	// Endpoint defaults
	if cfg.Endpoint.Group == "" {
		cfg.Endpoint.Group = "224.0.0.87"
	}
	if cfg.Endpoint.Port == 0 {
		cfg.Endpoint.Port = 8787
	}
	if cfg.Endpoint.TTL == 0 {
		cfg.Endpoint.TTL = 1
	}
	if cfg.Endpoint.LogLevel == "" {
		cfg.Endpoint.LogLevel = "info"
	}

	// Watch defaults
	if cfg.Watch.DBPath == "" {
		cfg.Watch.DBPath = "/var/lib/udisc/services.db"
	}
	if cfg.Watch.RPCSocket == "" {
		cfg.Watch.RPCSocket = "/run/udisc/watch.sock"
	}
	if cfg.Watch.StaleThreshold == "" {
		cfg.Watch.StaleThreshold = "90s"
	}
}
