// Package config handles configuration for the CLI client, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the vaultmerge CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the vaultmerge gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - VaultPath: path to the local SQLite database caching the vault
//     between syncs, so the CLI keeps working while offline.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	VaultPath           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.VaultPath = "vault.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
