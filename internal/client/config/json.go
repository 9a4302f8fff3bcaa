package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/flagx"
	"github.com/dmitrijs2005/vaultblob/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration, so they may be strings like "30s" or
// integer nanoseconds. Absent fields keep their current value.
type JsonConfig struct {
	ServerURL      string          `json:"server_url"`
	Mode           string          `json:"mode"`
	Bridge         string          `json:"bridge"`
	BridgeAddr     string          `json:"bridge_addr"`
	BridgeToken    string          `json:"bridge_token"`
	DatabasePath   string          `json:"database_path"`
	TempDir        string          `json:"temp_dir"`
	AccessToken    string          `json:"access_token"`
	OrderedReplay  *bool           `json:"ordered_replay"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	KeyCacheTTL    *timex.Duration `json:"key_cache_ttl"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read and unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.ServerURL, jc.ServerURL)
	setIf(&cfg.Mode, jc.Mode)
	setIf(&cfg.Bridge, jc.Bridge)
	setIf(&cfg.BridgeAddr, jc.BridgeAddr)
	setIf(&cfg.BridgeToken, jc.BridgeToken)
	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.TempDir, jc.TempDir)
	setIf(&cfg.AccessToken, jc.AccessToken)
	if jc.OrderedReplay != nil {
		cfg.OrderedReplay = *jc.OrderedReplay
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.KeyCacheTTL != nil {
		cfg.KeyCacheTTL = jc.KeyCacheTTL.Duration
	}
}
