package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/cache"
	"github.com/iwvelando/cashflow-forecast/internal/server"
	"github.com/iwvelando/cashflow-forecast/internal/store"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection and snapshot HTTP API",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	cmd.Flags().StringVar(&a.serverConfig, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&a.address, "address", "", "listen address override")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := server.LoadConfig(a.serverConfig)
	if err != nil {
		return err
	}
	if a.address != "" {
		cfg.Address = a.address
	}

	logger, err := InitializeLogger(cfg.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts, cleanup, err := a.serverOptions(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return serve(cmd.Context(), logger, srv)
}

// serverOptions opens the snapshot store and cache the handler uses. A store
// that cannot be opened disables the snapshot endpoints instead of failing.
func (a *app) serverOptions(cfg *server.Config, logger *zap.Logger) (server.Options, func(), error) {
	repo, err := cache.New(cfg.Cache.Backend, cfg.Cache.RedisAddress)
	if err != nil {
		return server.Options{}, nil, err
	}

	opts := server.Options{
		Logger:        logger,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       a.version,
		Locale:        cfg.Projection.Locale,
		StalenessDays: cfg.Projection.StalenessDays,
		Memoizer:      cache.NewMemoizer(logger, repo, cfg.Cache.TTL),
		Now:           a.now,
	}

	s, err := store.Open(cfg.Storage.SnapshotDatabase)
	if err != nil {
		logger.Warn("snapshot store unavailable",
			zap.String("op", "cli.serverOptions"),
			zap.String("path", cfg.Storage.SnapshotDatabase),
			zap.Error(err),
		)
	} else {
		opts.Store = s
	}

	cleanup := func() {
		if s != nil {
			_ = s.Close()
		}
		closeRepository(repo)
	}
	return opts, cleanup, nil
}

// serve runs srv until ctx is canceled, then drains it.
func serve(ctx context.Context, logger *zap.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "cli.serve"),
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", "cli.serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
