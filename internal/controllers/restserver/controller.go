package restserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/wllwatch/internal/log"
	"github.com/chrissnell/wllwatch/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Controller represents the REST server controller
type Controller struct {
	restConfig config.RESTServerData
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller for a station
func NewController(station Station, rc config.RESTServerData, save SaveFunc, logger *zap.SugaredLogger) (*Controller, error) {
	if station == nil {
		return nil, fmt.Errorf("REST server needs a station")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	// If a ListenAddr was not provided, listen on loopback only
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 127.0.0.1")
		rc.ListenAddr = "127.0.0.1"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8086")
		rc.Port = 8086
	}

	ctrl := &Controller{
		restConfig: rc,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(station, save, logger)

	ctrl.Server.Addr = net.JoinHostPort(rc.ListenAddr, strconv.Itoa(rc.Port))
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the router, for tests and embedding
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// Serve runs the REST server until ctx is cancelled, then shuts it down
func (c *Controller) Serve(ctx context.Context) error {
	c.logger.Infof("Starting REST server on %s", c.Server.Addr)

	errc := make(chan error, 1)
	go func() {
		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("REST server error: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("Shutting down the REST server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("REST server shutdown: %w", err)
	}
	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))
	router.Use(handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(c.logger.Desugar()))))

	h := c.handlers

	// Readings and safety signals
	router.HandleFunc("/conditions", h.GetConditions).Methods(http.MethodGet)
	router.HandleFunc("/safety", h.GetSafety).Methods(http.MethodGet)
	router.HandleFunc("/issafe", h.GetIsSafe).Methods(http.MethodGet)

	// Settings
	router.HandleFunc("/endpoint", h.GetEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/endpoint", h.PutEndpoint).Methods(http.MethodPut)
	router.HandleFunc("/thresholds", h.GetThresholds).Methods(http.MethodGet)
	router.HandleFunc("/thresholds", h.PutThresholds).Methods(http.MethodPut)
	router.HandleFunc("/transmitters", h.GetTransmitters).Methods(http.MethodGet)
	router.HandleFunc("/transmitters/{channel}", h.GetTransmitter).Methods(http.MethodGet)
	router.HandleFunc("/transmitters/{channel}", h.PutTransmitter).Methods(http.MethodPut)

	// Lifecycle
	router.HandleFunc("/connect", h.PostConnect).Methods(http.MethodPost)
	router.HandleFunc("/disconnect", h.PostDisconnect).Methods(http.MethodPost)
	router.HandleFunc("/refresh", h.PostRefresh).Methods(http.MethodPost)
	router.HandleFunc("/discover", h.PostDiscover).Methods(http.MethodPost)
	router.HandleFunc("/config/save", h.PostSaveConfig).Methods(http.MethodPost)

	return router
}
