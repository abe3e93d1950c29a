package app

import (
	"github.com/chrissnell/wllwatch/internal/weatherstations/weatherlinklive"
	"github.com/chrissnell/wllwatch/pkg/config"
)

// StationConfig builds a station configuration from the persisted settings
func StationConfig(cfg *config.ConfigData) weatherlinklive.StationConfig {
	opts := weatherlinklive.DefaultOptions()
	if cfg.Station.PollInterval > 0 {
		opts.PollInterval = cfg.Station.PollInterval
	}
	if cfg.Station.RainDivisor > 0 {
		opts.RainDivisor = cfg.Station.RainDivisor
	}

	var sel weatherlinklive.Selection
	sel[weatherlinklive.ChannelTemperature] = cfg.Transmitters.Temperature
	sel[weatherlinklive.ChannelWind] = cfg.Transmitters.Wind
	sel[weatherlinklive.ChannelRain] = cfg.Transmitters.Rain
	sel[weatherlinklive.ChannelHumidity] = cfg.Transmitters.Humidity
	sel[weatherlinklive.ChannelDewPoint] = cfg.Transmitters.DewPoint

	return weatherlinklive.StationConfig{
		Name: cfg.Station.Name,
		Endpoint: weatherlinklive.Endpoint{
			Host: cfg.Station.IPAddress,
			Port: cfg.Station.Port,
		},
		Selection: sel,
		Thresholds: weatherlinklive.Thresholds{
			Windy:        cfg.Safety.WindyThreshold,
			VeryWindy:    cfg.Safety.VeryWindyThreshold,
			CloseOnWindy: cfg.Safety.CloseOnWindy,
		},
		Options: opts,
	}
}

// ApplySettings copies a station's live settings into cfg
func ApplySettings(cfg *config.ConfigData, s weatherlinklive.Settings) {
	cfg.Station.IPAddress = s.Endpoint.Host
	cfg.Station.Port = s.Endpoint.Port
	if cfg.Station.Port == 0 {
		cfg.Station.Port = 80
	}

	cfg.Safety.WindyThreshold = s.Thresholds.Windy
	cfg.Safety.VeryWindyThreshold = s.Thresholds.VeryWindy
	cfg.Safety.CloseOnWindy = s.Thresholds.CloseOnWindy

	cfg.Transmitters.Temperature = s.Selection.Get(weatherlinklive.ChannelTemperature)
	cfg.Transmitters.Wind = s.Selection.Get(weatherlinklive.ChannelWind)
	cfg.Transmitters.Rain = s.Selection.Get(weatherlinklive.ChannelRain)
	cfg.Transmitters.Humidity = s.Selection.Get(weatherlinklive.ChannelHumidity)
	cfg.Transmitters.DewPoint = s.Selection.Get(weatherlinklive.ChannelDewPoint)
}

// OverrideTransmitters applies a "channel:txid,..." override on top of the
// configured transmitter selection
func OverrideTransmitters(cfg *config.ConfigData, override string) error {
	sel, err := weatherlinklive.ParseSelectionString(override, StationConfig(cfg).Selection)
	if err != nil {
		return err
	}
	ApplySettings(cfg, weatherlinklive.Settings{
		Endpoint:  weatherlinklive.Endpoint{Host: cfg.Station.IPAddress, Port: cfg.Station.Port},
		Selection: sel,
		Thresholds: weatherlinklive.Thresholds{
			Windy:        cfg.Safety.WindyThreshold,
			VeryWindy:    cfg.Safety.VeryWindyThreshold,
			CloseOnWindy: cfg.Safety.CloseOnWindy,
		},
	})
	return nil
}
