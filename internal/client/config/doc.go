// Package config loads runtime configuration for the vaultblob CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "mode": "desktop",
//	  "bridge": "ws",
//	  "bridge_addr": "ws://127.0.0.1:9090/bridge",
//	  "database_path": "vaultblob.db",
//	  "temp_dir": "/tmp/vaultblob",
//	  "access_token": "eyJ...",
//	  "ordered_replay": true,
//	  "request_timeout": "30s",
//	  "key_cache_ttl": "5m"
//	}
//
// Environment variables are not read.
package config
