// Package config handles configuration for the bridge host, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the bridge host.
//
// Fields:
//   - TempDir: the only directory the bridge reads from and writes to.
//   - ListenAddr: websocket bind address.
//   - Stream: serve over stdin and stdout instead of a websocket.
//   - Token: shared secret websocket clients must present. Required unless
//     Stream is set.
//   - TransferTimeout: limit for a single download or upload.
type Config struct {
	TempDir         string
	ListenAddr      string
	Stream          bool
	Token           string
	TransferTimeout time.Duration
}

// LoadDefaults populates c with defaults. The token stays empty, so a
// websocket host refuses to start until one is configured.
func (c *Config) LoadDefaults() {
	c.TempDir = filepath.Join(os.TempDir(), "vaultblob-bridge")
	c.ListenAddr = "127.0.0.1:9090"
	c.Stream = false
	c.Token = ""
	c.TransferTimeout = 5 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
