package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chrissnell/wllwatch/internal/app"
	"github.com/chrissnell/wllwatch/internal/log"
	"github.com/chrissnell/wllwatch/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "wllwatch.yaml", "Path to configuration source:\n\t\t\t  YAML: wllwatch.yaml\n\t\t\t  SQLite: wllwatch.db")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	readOnly := flag.Bool("config-readonly", false, "Never write settings back to the configuration source")
	transmitters := flag.String("transmitters", "", "Override transmitter selections, e.g. \"wind:2,rain:1\"")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wllwatch %s\n", version)
		os.Exit(0)
	}

	// Bootstrap logging so config errors are reported
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	provider, err := newProvider(*cfgFile, *cfgBackend, *readOnly)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	cfgData, err := config.Load(provider)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if *transmitters != "" {
		if err := app.OverrideTransmitters(cfgData, *transmitters); err != nil {
			log.Errorf("Invalid -transmitters value: %v", err)
			os.Exit(1)
		}
	}

	// Re-initialize with the configured log file, if any
	if err := log.InitWithFile(*debug, log.FileOptions{
		Path:       cfgData.Log.File,
		MaxSizeMB:  cfgData.Log.MaxSizeMB,
		MaxBackups: cfgData.Log.MaxBackups,
		MaxAgeDays: cfgData.Log.MaxAgeDays,
	}); err != nil {
		log.Errorf("Failed to open log file: %v", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create and run the application
	application, err := app.New(provider, cfgData, log.Named("wllwatch"))
	if err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func newProvider(cfgFile, cfgBackend string, readOnly bool) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename, readOnly), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename, readOnly)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}
