package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/wllwatch/internal/controllers/restserver"
	"github.com/chrissnell/wllwatch/internal/weatherstations"
	"github.com/chrissnell/wllwatch/internal/weatherstations/weatherlinklive"
	"github.com/chrissnell/wllwatch/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReconnectInterval is how long the app waits between startup connect attempts
const ReconnectInterval = 30 * time.Second

var _ weatherstations.WeatherStation = (*weatherlinklive.Station)(nil)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	config         *config.ConfigData
	station        *weatherlinklive.Station
	rest           *restserver.Controller
	logger         *zap.SugaredLogger

	reconnectInterval time.Duration
}

// New creates a new application instance from a loaded configuration
func New(configProvider config.ConfigProvider, cfg *config.ConfigData, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	a := &App{
		configProvider:    configProvider,
		config:            cfg,
		logger:            logger,
		reconnectInterval: ReconnectInterval,
	}

	a.station = weatherlinklive.NewStation(StationConfig(cfg), logger.Named("weatherlinklive"))

	rest, err := restserver.NewController(a.station, cfg.REST, a.saveSettings, logger.Named("rest"))
	if err != nil {
		return nil, err
	}
	a.rest = rest

	return a, nil
}

// Station returns the station the app drives
func (a *App) Station() *weatherlinklive.Station {
	return a.station
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.rest.Serve(gctx)
	})

	g.Go(func() error {
		connectLoop(gctx, a.station, a.reconnectInterval, a.logger)
		return nil
	})

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-gctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	err := g.Wait()

	a.station.Disconnect()
	a.logger.Info("shutdown complete")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// connectLoop tries to link the station until it succeeds or ctx ends
func connectLoop(ctx context.Context, ws weatherstations.WeatherStation, every time.Duration, logger *zap.SugaredLogger) {
	for {
		err := ws.Connect(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, weatherlinklive.ErrNoEndpoint) {
			logger.Warnf("No address configured for %s; waiting for one to be set", ws.StationName())
			return
		}
		logger.Errorf("Could not connect to %s, retrying in %v: %v", ws.StationName(), every, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(every):
		}
		if ws.IsConnected() {
			return
		}
	}
}

// saveSettings writes the station's current settings back through the provider
func (a *App) saveSettings() error {
	out := *a.config
	ApplySettings(&out, a.station.Settings())
	if err := config.Validate(&out); err != nil {
		return err
	}
	if err := a.configProvider.SaveConfig(&out); err != nil {
		return err
	}
	a.logger.Info("Configuration saved")
	return nil
}
