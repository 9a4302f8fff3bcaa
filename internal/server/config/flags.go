package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-u string     public URL of the storage server
//	-s string     JWT HMAC secret key
//	-b string     blob store backend: memory or s3
//	-l float      per-user rate limit, requests per second
//	-n int        suspension window, seconds
//	-t int        access token validity, minutes
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-mint string  print an access token for the user and exit
//
// Only the flags above are taken from os.Args, see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-u", "-s", "-b", "-l", "-n", "-t", "-e", "-mint"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address and port to run server")
	fs.StringVar(&cfg.PublicURL, "u", cfg.PublicURL, "public URL of the storage server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "blob store backend (memory|s3)")
	fs.Float64Var(&cfg.RateLimit, "l", cfg.RateLimit, "per-user requests per second")
	suspension := fs.Int("n", int(cfg.SuspensionTime.Seconds()), "suspension window (in seconds)")
	accessTokenValidity := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.MintUser, "mint", cfg.MintUser, "print an access token for this user and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SuspensionTime = time.Duration(*suspension) * time.Second
	cfg.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
}
