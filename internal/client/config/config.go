package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the vaultblob CLI.
//
// Units: RequestTimeout is a time.Duration (e.g., 30*time.Second).
type Config struct {
	// ServerURL is the origin of the REST services.
	ServerURL string
	// Mode is browser, app or desktop. Native transfers need app or desktop.
	Mode string
	// Bridge selects how the native file bridge is reached:
	// local, pipe, ws or stream.
	Bridge string
	// BridgeAddr is the websocket URL of a remote bridge host.
	BridgeAddr string
	// BridgeToken is the shared secret the websocket bridge host expects.
	BridgeToken string

	DatabasePath string
	TempDir      string
	AccessToken  string

	OrderedReplay  bool
	RequestTimeout time.Duration
	KeyCacheTTL    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Mode = "desktop"
	c.Bridge = "pipe"
	c.BridgeAddr = ""
	c.BridgeToken = ""
	c.DatabasePath = "vaultblob.db"
	c.TempDir = filepath.Join(os.TempDir(), "vaultblob")
	c.AccessToken = ""
	c.OrderedReplay = false
	c.RequestTimeout = 30 * time.Second
	c.KeyCacheTTL = 5 * time.Minute
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
