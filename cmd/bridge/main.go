// Command bridge hosts the native file bridge for vaultblob clients, either
// on a websocket endpoint or over its own stdin and stdout.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/bridgehost/config"
	"github.com/dmitrijs2005/vaultblob/internal/client/native"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return os.Stdin.Close() }

func main() {
	cfg := config.LoadConfig()

	// stdout carries bridge messages in stream mode, so logs go to stderr.
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge, err := native.NewLocalBridge(cfg.TempDir, &http.Client{Timeout: cfg.TransferTimeout}, log)
	if err != nil {
		log.Error(ctx, "failed to create bridge", "error", err)
		os.Exit(1)
	}

	if cfg.Stream {
		if err := native.ServeStream(ctx, stdio{}, bridge, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(ctx, "bridge stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Token == "" {
		log.Error(ctx, "websocket bridge requires a shared token (-k)")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/bridge", native.WebSocketHandler(bridge, cfg.Token, log))
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "bridge host listening", "addr", cfg.ListenAddr, "path", "/bridge")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "bridge host failed", "error", err)
		os.Exit(1)
	}
}
