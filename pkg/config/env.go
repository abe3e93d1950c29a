package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment override, e.g. WLLWATCH_IP_ADDRESS
const EnvPrefix = "WLLWATCH"

// envOverrides lists the settings that may come from the environment. It is
// seeded from the loaded configuration so that unset variables change nothing.
type envOverrides struct {
	IPAddress          string        `envconfig:"IP_ADDRESS"`
	Port               int           `envconfig:"DEVICE_PORT"`
	PollInterval       time.Duration `envconfig:"POLL_INTERVAL"`
	RainDivisor        float64       `envconfig:"RAIN_DIVISOR"`
	WindyThreshold     float64       `envconfig:"WINDY_THRESHOLD"`
	VeryWindyThreshold float64       `envconfig:"VERY_WINDY_THRESHOLD"`
	CloseOnWindy       bool          `envconfig:"CLOSE_ON_WINDY"`
	RESTListenAddr     string        `envconfig:"REST_LISTEN_ADDR"`
	RESTPort           int           `envconfig:"REST_PORT"`
	LogFile            string        `envconfig:"LOG_FILE"`
}

// ApplyEnv overlays WLLWATCH_* environment variables onto cfg
func ApplyEnv(cfg *ConfigData) error {
	o := envOverrides{
		IPAddress:          cfg.Station.IPAddress,
		Port:               cfg.Station.Port,
		PollInterval:       cfg.Station.PollInterval,
		RainDivisor:        cfg.Station.RainDivisor,
		WindyThreshold:     cfg.Safety.WindyThreshold,
		VeryWindyThreshold: cfg.Safety.VeryWindyThreshold,
		CloseOnWindy:       cfg.Safety.CloseOnWindy,
		RESTListenAddr:     cfg.REST.ListenAddr,
		RESTPort:           cfg.REST.Port,
		LogFile:            cfg.Log.File,
	}

	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("failed to process environment overrides: %w", err)
	}

	cfg.Station.IPAddress = o.IPAddress
	cfg.Station.Port = o.Port
	cfg.Station.PollInterval = o.PollInterval
	cfg.Station.RainDivisor = o.RainDivisor
	cfg.Safety.WindyThreshold = o.WindyThreshold
	cfg.Safety.VeryWindyThreshold = o.VeryWindyThreshold
	cfg.Safety.CloseOnWindy = o.CloseOnWindy
	cfg.REST.ListenAddr = o.RESTListenAddr
	cfg.REST.Port = o.RESTPort
	cfg.Log.File = o.LogFile
	return nil
}
