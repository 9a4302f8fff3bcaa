// Package server wires the development storage service: blob store,
// services and the HTTP endpoint, with graceful shutdown on signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server/auth"
	"github.com/dmitrijs2005/vaultblob/internal/server/config"
	"github.com/dmitrijs2005/vaultblob/internal/server/rest"
	"github.com/dmitrijs2005/vaultblob/internal/server/services"
	"github.com/dmitrijs2005/vaultblob/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *rest.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	blobs := services.NewBlobService(store, cfg, logger)
	files := services.NewFileDataService(store, logger)

	return &App{
		config: cfg,
		logger: logger,
		server: rest.NewServer(cfg, logger, blobs, files),
	}, nil
}

// MintToken returns an access token for userID signed with the
// configured secret.
func MintToken(cfg *config.Config, userID string) (string, error) {
	return auth.GenerateToken(userID, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend, "public_url", app.config.PublicURL)

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(ctx) })
	g.Go(func() error { return app.server.ExpireLimiters(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
