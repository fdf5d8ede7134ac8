package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chrissnell/wellmrc/internal/controllers/restserver"
	"github.com/chrissnell/wellmrc/internal/metrics"
	"github.com/chrissnell/wellmrc/internal/store"
	"github.com/chrissnell/wellmrc/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// openStore connects the fit result store if one is configured
func (a *App) openStore(ctx context.Context) (*store.Store, error) {
	var dsn string
	switch a.cfg.Storage.Backend {
	case "":
		a.logger.Info("no storage backend configured; fit results will not be recorded")
		return nil, nil
	case store.BackendSQLite:
		dsn = a.cfg.Storage.SQLitePath
	case store.BackendPostgres:
		dsn = a.cfg.Storage.ConnectionString
	}

	fits, err := store.Open(ctx, a.cfg.Storage.Backend, dsn, a.logger.Named("store"))
	if err != nil {
		return nil, err
	}
	if err := fits.Migrate(ctx); err != nil {
		fits.Close()
		return nil, err
	}
	return fits, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fits, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("could not open fit store: %w", err)
	}
	if fits != nil {
		defer fits.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	rest, err := restserver.NewController(ctx, &wg, a.cfg, fits, m, a.logger.Named("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
