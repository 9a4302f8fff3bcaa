package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-t string   bridge working directory
//	-l string   websocket listen address
//	-k string   shared secret of websocket clients
//	-r int      transfer timeout in seconds
//	-stream     serve over stdin and stdout
//
// Only the flags above are taken from os.Args, see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-t", "-l", "-k", "-r"}, "-stream")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.TempDir, "t", cfg.TempDir, "bridge working directory")
	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "websocket listen address")
	fs.StringVar(&cfg.Token, "k", cfg.Token, "shared secret of websocket clients")
	fs.BoolVar(&cfg.Stream, "stream", cfg.Stream, "serve over stdin/stdout instead of a websocket")
	timeout := fs.Int("r", int(cfg.TransferTimeout.Seconds()), "transfer timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TransferTimeout = time.Duration(*timeout) * time.Second
}
