package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/wllwatch/internal/log"
	"github.com/gorilla/mux"
)

func main() {
	var (
		listen       = flag.String("listen", "127.0.0.1:8080", "Address to serve /v1/current_conditions on")
		transmitters = flag.Int("transmitters", 1, "Number of ISS transmitters to report (1-8)")
		windOnly     = flag.String("wind-only", "", "Comma-separated txids that report wind but no temperature, humidity or rain")
		comments     = flag.Bool("comments", false, "Wrap the JSON in stray <!-- --> lines, as some firmware does")
		deviceError  = flag.String("device-error", "", "Reply with this device error instead of data")
		debug        = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sim, err := newSimulator(simulatorConfig{
		Transmitters: *transmitters,
		WindOnly:     *windOnly,
		Comments:     *comments,
		DeviceError:  *deviceError,
	})
	if err != nil {
		log.Fatalf("Invalid simulator settings: %v", err)
	}

	logger := log.Named("wll-simulator")
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(logger))
	router.HandleFunc("/v1/current_conditions", sim.ServeConditions).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              *listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		log.Info("Shutdown signal received, stopping...")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Simulating a WeatherLink Live with %d transmitter(s) on http://%s", *transmitters, *listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Simulator error: %v", err)
	}
}
