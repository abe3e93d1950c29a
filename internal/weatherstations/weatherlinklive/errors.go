package weatherlinklive

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoint is returned by Connect when no address is configured
	ErrNoEndpoint = errors.New("no device address configured")
	// ErrTransportInitFailed is returned when the HTTP client can't be built
	ErrTransportInitFailed = errors.New("failed to initialize HTTP transport")
	// ErrCommandFailed covers any failed request or fetch+parse pass
	ErrCommandFailed = errors.New("command failed")
	// ErrParseFailed is returned for malformed JSON or an unexpected payload shape
	ErrParseFailed = errors.New("failed to parse current conditions")
	// ErrDeviceReported matches any *DeviceError via errors.Is
	ErrDeviceReported = errors.New("device reported an error")
	// ErrNotConnected is returned by operations that need an active connection
	ErrNotConnected = errors.New("not connected")
	// ErrConnected is returned when the endpoint is changed while connected
	ErrConnected = errors.New("endpoint cannot change while connected")
	// ErrUnknownChannel is returned for a channel index outside the known set
	ErrUnknownChannel = errors.New("unknown sensor channel")
)

// DeviceError carries the message from a populated "error" field
type DeviceError struct {
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error: %s", e.Message)
}

// Is lets errors.Is(err, ErrDeviceReported) match
func (e *DeviceError) Is(target error) bool {
	return target == ErrDeviceReported
}
