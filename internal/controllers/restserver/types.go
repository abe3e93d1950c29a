package restserver

import (
	"context"
	"time"

	"github.com/chrissnell/wllwatch/internal/weatherstations/weatherlinklive"
)

// Station is the part of a WeatherLink Live station the API drives
type Station interface {
	StationName() string
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	SessionID() string

	Refresh(ctx context.Context) error
	DiscoverTransmitters(ctx context.Context) error

	Readings() weatherlinklive.ReadingSnapshot
	Firmware() string
	WindSpeedUnit() weatherlinklive.WindSpeedUnit
	SafetyReport() (weatherlinklive.SafetyReport, error)
	IsSafe(ctx context.Context) (bool, error)

	Endpoint() weatherlinklive.Endpoint
	SetEndpoint(ep weatherlinklive.Endpoint) error
	Thresholds() weatherlinklive.Thresholds
	SetThresholds(th weatherlinklive.Thresholds)

	Transmitters() []weatherlinklive.ChannelTransmitters
	ChannelTransmitter(c weatherlinklive.Channel) (int, error)
	ChannelCandidates(c weatherlinklive.Channel) ([]int, error)
	SetChannelTransmitter(ctx context.Context, c weatherlinklive.Channel, txid int) error
}

// SaveFunc persists the station's current settings
type SaveFunc func() error

// ConditionsResponse is returned by GET /conditions
type ConditionsResponse struct {
	Station       string    `json:"station"`
	Connected     bool      `json:"connected"`
	Firmware      string    `json:"firmware"`
	Session       string    `json:"session,omitempty"`
	WindSpeedUnit string    `json:"wind_speed_unit"`
	AmbientTemp   float64   `json:"ambient_temp_c"`
	WindSpeed     float64   `json:"wind_speed"`
	WindCondition float64   `json:"wind_condition"`
	Humidity      float64   `json:"humidity_pct"`
	DewPoint      float64   `json:"dew_point_c"`
	RainFlag      float64   `json:"rain_flag"`
	RainCondition float64   `json:"rain_condition"`
	Pressure      float64   `json:"barometric_pressure_mbar"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// IsSafeResponse is returned by GET /issafe
type IsSafeResponse struct {
	Safe bool `json:"safe"`
}

// StatusResponse is returned by the lifecycle endpoints
type StatusResponse struct {
	Connected bool   `json:"connected"`
	Firmware  string `json:"firmware"`
	Session   string `json:"session,omitempty"`
}

// EndpointRequest is the body of PUT /endpoint
type EndpointRequest struct {
	IPAddress string `json:"ip_address" validate:"required,max=253"`
	Port      int    `json:"port" validate:"min=0,max=65535"`
}

// ThresholdsRequest is the body of PUT /thresholds
type ThresholdsRequest struct {
	Windy        *float64 `json:"windy_threshold" validate:"required,gte=0"`
	VeryWindy    *float64 `json:"very_windy_threshold" validate:"required,gte=0"`
	CloseOnWindy bool     `json:"close_on_windy"`
}

// TransmitterRequest is the body of PUT /transmitters/{channel}
type TransmitterRequest struct {
	TxID int `json:"txid" validate:"min=1,max=8"`
}

// TransmitterResponse describes one channel
type TransmitterResponse struct {
	Channel    string `json:"channel"`
	Selected   int    `json:"selected"`
	Candidates []int  `json:"candidates"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}
