package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/flagx"
	"github.com/dmitrijs2005/vaultblob/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration, so they may be strings like "1s" or
// integer nanoseconds. Absent fields keep their current value.
type JsonConfig struct {
	ListenAddr                   string          `json:"listen_addr"`
	PublicURL                    string          `json:"public_url"`
	SecretKey                    string          `json:"secret_key"`
	Backend                      string          `json:"backend"`
	RateLimit                    *float64        `json:"rate_limit"`
	RateBurst                    *int            `json:"rate_burst"`
	SuspensionTime               *timex.Duration `json:"suspension_time"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	StorageTokenValidityDuration *timex.Duration `json:"storage_token_validity_duration"`
	S3RootUser                   string          `json:"s3_root_user"`
	S3RootPassword               string          `json:"s3_root_password"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
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

	setIf(&cfg.ListenAddr, jc.ListenAddr)
	setIf(&cfg.PublicURL, jc.PublicURL)
	setIf(&cfg.SecretKey, jc.SecretKey)
	setIf(&cfg.Backend, jc.Backend)
	setIf(&cfg.S3RootUser, jc.S3RootUser)
	setIf(&cfg.S3RootPassword, jc.S3RootPassword)
	setIf(&cfg.S3Bucket, jc.S3Bucket)
	setIf(&cfg.S3Region, jc.S3Region)
	setIf(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	if jc.RateLimit != nil {
		cfg.RateLimit = *jc.RateLimit
	}
	if jc.RateBurst != nil {
		cfg.RateBurst = *jc.RateBurst
	}
	if jc.SuspensionTime != nil {
		cfg.SuspensionTime = jc.SuspensionTime.Duration
	}
	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.StorageTokenValidityDuration != nil {
		cfg.StorageTokenValidityDuration = jc.StorageTokenValidityDuration.Duration
	}
}
