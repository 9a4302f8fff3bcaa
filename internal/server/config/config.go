// Package config handles configuration for the storage service,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Backends of the blob store.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config holds runtime settings for the storage service.
//
// Fields:
//   - ListenAddr: bind address of the HTTP endpoint.
//   - PublicURL: storage server URL handed out with blob access tokens.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - Backend: blob store backend, memory or s3.
//   - RateLimit / RateBurst: per-user token bucket, requests per second.
//   - SuspensionTime: window announced to a client that exhausted its bucket.
//   - AccessTokenValidityDuration / StorageTokenValidityDuration: token lifetimes.
//   - MintUser: when set, print an access token for this user and exit.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage settings for the s3 backend.
type Config struct {
	ListenAddr                   string
	PublicURL                    string
	SecretKey                    string
	Backend                      string
	RateLimit                    float64
	RateBurst                    int
	SuspensionTime               time.Duration
	AccessTokenValidityDuration  time.Duration
	StorageTokenValidityDuration time.Duration
	MintUser                     string
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.PublicURL = "http://127.0.0.1:8080"
	c.SecretKey = "secretKey"
	c.Backend = BackendMemory
	c.RateLimit = 20
	c.RateBurst = 40
	c.SuspensionTime = 5 * time.Second
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.StorageTokenValidityDuration = 10 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
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
