package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/buildinfo"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server"
	"github.com/dmitrijs2005/vaultblob/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.MintUser != "" {
		tok, err := server.MintToken(cfg, cfg.MintUser)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server failed", "error", err)
		os.Exit(1)
	}
}
