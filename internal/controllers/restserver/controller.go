package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/wellmrc/internal/log"
	"github.com/chrissnell/wellmrc/internal/metrics"
	"github.com/chrissnell/wellmrc/internal/session"
	"github.com/chrissnell/wellmrc/internal/store"
	"github.com/chrissnell/wellmrc/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	analysis  config.AnalysisData
	serverCfg config.ServerData
	Server    http.Server
	Sessions  *session.Manager
	Fits      *store.Store // nil when no result store is configured
	Metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	handlers  *Handlers
}

// NewController creates a new REST server controller. fits may be nil, in
// which case fit results are not recorded and the history endpoints answer 503.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, fits *store.Store, m *metrics.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	if _, err := cfg.Analysis.FitOptions(); err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %v", err)
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		analysis:  cfg.Analysis,
		serverCfg: cfg.Server,
		Sessions:  session.NewManager(cfg.Server.DeleteRadiusPx),
		Fits:      fits,
		Metrics:   m,
		logger:    logger,
	}

	if ctrl.analysis.Deltan == 0 {
		ctrl.analysis.Deltan = config.DefaultDeltan
	}

	// If a listen address was not provided, listen on all interfaces
	if ctrl.serverCfg.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.serverCfg.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if ctrl.serverCfg.HTTPPort == 0 {
		logger.Infof("server.http_port not provided; defaulting to %d", config.DefaultHTTPPort)
		ctrl.serverCfg.HTTPPort = config.DefaultHTTPPort
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverCfg.ListenAddr, ctrl.serverCfg.HTTPPort)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	api := router.PathPrefix("/api").Subrouter()

	// Stateless analysis
	api.HandleFunc("/extrema", c.handlers.FindExtrema).Methods(http.MethodPost)
	api.HandleFunc("/fit", c.handlers.Fit).Methods(http.MethodPost)

	// Selection sessions
	api.HandleFunc("/sessions", c.handlers.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", c.handlers.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", c.handlers.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/detect", c.handlers.DetectSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/mode", c.handlers.SetSessionMode).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/press", c.handlers.PressSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/undo", c.handlers.UndoSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/clear", c.handlers.ClearSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/fit", c.handlers.FitSession).Methods(http.MethodPost)

	// Stored results
	api.HandleFunc("/wells/{well}/fits", c.handlers.ListWellFits).Methods(http.MethodGet)
	api.HandleFunc("/fits/{id}", c.handlers.GetFit).Methods(http.MethodGet)

	router.Handle("/metrics", c.Metrics.Handler()).Methods(http.MethodGet)

	return router
}
