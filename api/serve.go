package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/lcc-engine/config"
	"github.com/warp/lcc-engine/datasource"
	"github.com/warp/lcc-engine/logging"
	"github.com/warp/lcc-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

// Run opens the store and the dataset named by cfg and serves the API until
// ctx is cancelled. Active requests get shutdownTimeout to complete.
func Run(ctx context.Context, cfg config.Config) error {
	logger := logging.Component(ctx, "server")

	store, err := sqlite.New(cfg.Server.DB)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	var src datasource.Source
	if cfg.Dataset.Path != "" {
		reloader, err := datasource.NewReloader(cfg.Dataset.Path)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		reloader.Start()
		defer reloader.Stop()
		src = reloader
	} else {
		logger.Warn().Msg("no dataset configured, emissions and escalation tables are unavailable")
	}

	handler := NewHandler(store, src, cfg.Defaults)
	router := NewRouter(handler, Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      *logging.FromContext(ctx),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("db", cfg.Server.DB).
			Msgf("API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
