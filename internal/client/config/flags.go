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
//	-a string   origin of the REST services
//	-m string   mode: browser, app or desktop
//	-b string   native bridge: local, pipe, ws or stream
//	-w string   websocket URL of the bridge host (with -b ws)
//	-s string   shared secret of the bridge host (with -b ws)
//	-d string   path of the local database
//	-t string   directory for temporary files
//	-k string   access token
//	-o          replay deferred requests in FIFO order
//	-r int      request timeout in seconds
//
// Only the flags above are taken from os.Args, see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-m", "-b", "-w", "-s", "-d", "-t", "-k", "-r"},
		"-o")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "origin of the REST services")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "client mode (browser|app|desktop)")
	fs.StringVar(&cfg.Bridge, "b", cfg.Bridge, "native bridge (local|pipe|ws|stream)")
	fs.StringVar(&cfg.BridgeAddr, "w", cfg.BridgeAddr, "websocket URL of the bridge host")
	fs.StringVar(&cfg.BridgeToken, "s", cfg.BridgeToken, "shared secret of the bridge host")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.TempDir, "t", cfg.TempDir, "directory for temporary files")
	fs.StringVar(&cfg.AccessToken, "k", cfg.AccessToken, "access token")
	fs.BoolVar(&cfg.OrderedReplay, "o", cfg.OrderedReplay, "replay deferred requests in order")
	timeout := fs.Int("r", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
