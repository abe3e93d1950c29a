package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrReadOnly is returned by SaveConfig on a provider opened read-only
var ErrReadOnly = errors.New("configuration provider is read-only")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Persist complete configuration
	SaveConfig(*ConfigData) error

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Station      StationData     `json:"station" yaml:"station"`
	Safety       SafetyData      `json:"safety" yaml:"safety"`
	Transmitters TransmitterData `json:"transmitters" yaml:"transmitters"`
	REST         RESTServerData  `json:"rest" yaml:"rest"`
	Log          LogData         `json:"log" yaml:"log"`
}

// StationData holds the WeatherLink Live address and polling options
type StationData struct {
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	IPAddress    string        `json:"ip_address" yaml:"ip-address" validate:"omitempty,max=253"`
	Port         int           `json:"port" yaml:"port" validate:"min=1,max=65535"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll-interval" validate:"min=100ms"`
	RainDivisor  float64       `json:"rain_divisor" yaml:"rain-divisor" validate:"gt=0"`
}

// SafetyData holds the wind thresholds in km/h
type SafetyData struct {
	WindyThreshold     float64 `json:"windy_threshold" yaml:"windy-threshold" validate:"gte=0"`
	VeryWindyThreshold float64 `json:"very_windy_threshold" yaml:"very-windy-threshold" validate:"gtefield=WindyThreshold"`
	CloseOnWindy       bool    `json:"close_on_windy" yaml:"close-on-windy"`
}

// TransmitterData holds the selected transmitter ID per channel
type TransmitterData struct {
	Temperature int `json:"temperature" yaml:"temperature" validate:"min=1,max=8"`
	Wind        int `json:"wind" yaml:"wind" validate:"min=1,max=8"`
	Rain        int `json:"rain" yaml:"rain" validate:"min=1,max=8"`
	Humidity    int `json:"humidity" yaml:"humidity" validate:"min=1,max=8"`
	DewPoint    int `json:"dew_point" yaml:"dew-point" validate:"min=1,max=8"`
}

// RESTServerData configures the HTTP API
type RESTServerData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty" validate:"required_with=Key"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty" validate:"required_with=Cert"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty" validate:"min=1,max=65535"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty" validate:"required"`
}

// LogData configures the optional rotating log file
type LogData struct {
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max-size-mb,omitempty" validate:"gte=0"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max-backups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max-age-days,omitempty" validate:"gte=0"`
}

// Defaults returns the configuration used for anything not set elsewhere
func Defaults() *ConfigData {
	return &ConfigData{
		Station: StationData{
			IPAddress:    "192.168.0.10",
			Port:         80,
			PollInterval: 5 * time.Second,
			RainDivisor:  100,
		},
		Safety: SafetyData{
			WindyThreshold:     20,
			VeryWindyThreshold: 30,
		},
		Transmitters: TransmitterData{
			Temperature: 1,
			Wind:        1,
			Rain:        1,
			Humidity:    1,
			DewPoint:    1,
		},
		REST: RESTServerData{
			ListenAddr: "127.0.0.1",
			Port:       8086,
		},
		Log: LogData{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Setting keys used by key/value backends
const (
	keyStationName        = "station.name"
	keyIPAddress          = "station.ip_address"
	keyPort               = "station.port"
	keyPollInterval       = "station.poll_interval"
	keyRainDivisor        = "station.rain_divisor"
	keyWindyThreshold     = "safety.windy_threshold"
	keyVeryWindyThreshold = "safety.very_windy_threshold"
	keyCloseOnWindy       = "safety.close_on_windy"
	keyTxTemperature      = "transmitters.temperature"
	keyTxWind             = "transmitters.wind"
	keyTxRain             = "transmitters.rain"
	keyTxHumidity         = "transmitters.humidity"
	keyTxDewPoint         = "transmitters.dew_point"
	keyRESTCert           = "rest.cert"
	keyRESTKey            = "rest.key"
	keyRESTPort           = "rest.port"
	keyRESTListenAddr     = "rest.listen_addr"
	keyLogFile            = "log.file"
	keyLogMaxSizeMB       = "log.max_size_mb"
	keyLogMaxBackups      = "log.max_backups"
	keyLogMaxAgeDays      = "log.max_age_days"
)

// Settings flattens the configuration into key/value pairs
func (c *ConfigData) Settings() map[string]string {
	ff := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	return map[string]string{
		keyStationName:        c.Station.Name,
		keyIPAddress:          c.Station.IPAddress,
		keyPort:               strconv.Itoa(c.Station.Port),
		keyPollInterval:       c.Station.PollInterval.String(),
		keyRainDivisor:        ff(c.Station.RainDivisor),
		keyWindyThreshold:     ff(c.Safety.WindyThreshold),
		keyVeryWindyThreshold: ff(c.Safety.VeryWindyThreshold),
		keyCloseOnWindy:       strconv.FormatBool(c.Safety.CloseOnWindy),
		keyTxTemperature:      strconv.Itoa(c.Transmitters.Temperature),
		keyTxWind:             strconv.Itoa(c.Transmitters.Wind),
		keyTxRain:             strconv.Itoa(c.Transmitters.Rain),
		keyTxHumidity:         strconv.Itoa(c.Transmitters.Humidity),
		keyTxDewPoint:         strconv.Itoa(c.Transmitters.DewPoint),
		keyRESTCert:           c.REST.Cert,
		keyRESTKey:            c.REST.Key,
		keyRESTPort:           strconv.Itoa(c.REST.Port),
		keyRESTListenAddr:     c.REST.ListenAddr,
		keyLogFile:            c.Log.File,
		keyLogMaxSizeMB:       strconv.Itoa(c.Log.MaxSizeMB),
		keyLogMaxBackups:      strconv.Itoa(c.Log.MaxBackups),
		keyLogMaxAgeDays:      strconv.Itoa(c.Log.MaxAgeDays),
	}
}

// ApplySetting sets one field from its key/value form. Unknown keys are ignored
// so that older binaries can read newer databases.
func (c *ConfigData) ApplySetting(key, value string) error {
	var err error

	setInt := func(dst *int) { *dst, err = strconv.Atoi(value) }
	setFloat := func(dst *float64) { *dst, err = strconv.ParseFloat(value, 64) }

	switch key {
	case keyStationName:
		c.Station.Name = value
	case keyIPAddress:
		c.Station.IPAddress = value
	case keyPort:
		setInt(&c.Station.Port)
	case keyPollInterval:
		c.Station.PollInterval, err = time.ParseDuration(value)
	case keyRainDivisor:
		setFloat(&c.Station.RainDivisor)
	case keyWindyThreshold:
		setFloat(&c.Safety.WindyThreshold)
	case keyVeryWindyThreshold:
		setFloat(&c.Safety.VeryWindyThreshold)
	case keyCloseOnWindy:
		c.Safety.CloseOnWindy, err = strconv.ParseBool(value)
	case keyTxTemperature:
		setInt(&c.Transmitters.Temperature)
	case keyTxWind:
		setInt(&c.Transmitters.Wind)
	case keyTxRain:
		setInt(&c.Transmitters.Rain)
	case keyTxHumidity:
		setInt(&c.Transmitters.Humidity)
	case keyTxDewPoint:
		setInt(&c.Transmitters.DewPoint)
	case keyRESTCert:
		c.REST.Cert = value
	case keyRESTKey:
		c.REST.Key = value
	case keyRESTPort:
		setInt(&c.REST.Port)
	case keyRESTListenAddr:
		c.REST.ListenAddr = value
	case keyLogFile:
		c.Log.File = value
	case keyLogMaxSizeMB:
		setInt(&c.Log.MaxSizeMB)
	case keyLogMaxBackups:
		setInt(&c.Log.MaxBackups)
	case keyLogMaxAgeDays:
		setInt(&c.Log.MaxAgeDays)
	}

	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}
