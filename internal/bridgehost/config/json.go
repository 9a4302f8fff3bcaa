package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/flagx"
	"github.com/dmitrijs2005/vaultblob/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Absent fields keep their current value.
type JsonConfig struct {
	TempDir         string          `json:"temp_dir"`
	ListenAddr      string          `json:"listen_addr"`
	Stream          *bool           `json:"stream"`
	Token           string          `json:"token"`
	TransferTimeout *timex.Duration `json:"transfer_timeout"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Read and unmarshal errors panic.
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

	setIf(&cfg.TempDir, jc.TempDir)
	setIf(&cfg.ListenAddr, jc.ListenAddr)
	setIf(&cfg.Token, jc.Token)
	if jc.Stream != nil {
		cfg.Stream = *jc.Stream
	}
	if jc.TransferTimeout != nil {
		cfg.TransferTimeout = jc.TransferTimeout.Duration
	}
}
