// Package rest exposes the storage service over HTTP: the blob access
// token service, the blob service and the legacy file data service.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server/config"
	"github.com/dmitrijs2005/vaultblob/internal/server/services"
)

// maxBodySize bounds request bodies.
const maxBodySize = 64 << 20

type Server struct {
	address    string
	blobs      *services.BlobService
	files      *services.FileDataService
	logger     logging.Logger
	jwtSecret  []byte
	limiters   *limiterPool
	suspension time.Duration
}

func NewServer(cfg *config.Config, l logging.Logger, blobs *services.BlobService, files *services.FileDataService) *Server {
	return &Server{
		address:    cfg.ListenAddr,
		blobs:      blobs,
		files:      files,
		logger:     l.With("module", "rest_server"),
		jwtSecret:  []byte(cfg.SecretKey),
		limiters:   newLimiterPool(cfg.RateLimit, cfg.RateBurst),
		suspension: cfg.SuspensionTime,
	}
}

// Handler routes the services. Every route needs a user access token and
// is subject to the user's rate limit.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.authenticate(s.suspend(h)))
	}

	route("POST "+common.BlobAccessTokenServicePath, s.blobAccessToken)
	route("PUT "+common.BlobServicePath, s.putBlob)
	route("GET "+common.BlobServicePath, s.getBlob)
	route("POST "+common.FileDataServicePath, s.registerFileData)
	route("PUT "+common.FileDataServicePath, s.putFileData)
	route("GET "+common.FileDataServicePath, s.getFileData)

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ExpireLimiters evicts idle rate limiter buckets until ctx is done.
func (s *Server) ExpireLimiters(ctx context.Context) error {
	s.limiters.expire(ctx)
	return nil
}
