package weatherstations

import "context"

// WeatherStation is the lifecycle every station backend provides to the app
type WeatherStation interface {
	StationName() string
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}
