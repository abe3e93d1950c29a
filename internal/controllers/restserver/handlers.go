package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chrissnell/wllwatch/internal/weatherstations/weatherlinklive"
	"github.com/chrissnell/wllwatch/pkg/config"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxRequestBytes = 64 << 10

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	station  Station
	save     SaveFunc
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewHandlers creates a new handlers instance
func NewHandlers(station Station, save SaveFunc, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{
		station:  station,
		save:     save,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetConditions returns the cached readings
func (h *Handlers) GetConditions(w http.ResponseWriter, req *http.Request) {
	snap := h.station.Readings()
	writeJSON(w, http.StatusOK, ConditionsResponse{
		Station:       h.station.StationName(),
		Connected:     h.station.IsConnected(),
		Firmware:      h.station.Firmware(),
		Session:       h.station.SessionID(),
		WindSpeedUnit: h.station.WindSpeedUnit().String(),
		AmbientTemp:   snap.AmbientTemp,
		WindSpeed:     snap.WindSpeed,
		WindCondition: snap.WindCondition,
		Humidity:      snap.Humidity,
		DewPoint:      snap.DewPoint,
		RainFlag:      snap.RainFlag,
		RainCondition: snap.RainCondition,
		Pressure:      snap.BarometricPressure,
		UpdatedAt:     snap.UpdatedAt,
	})
}

// GetSafety returns the safety report built from the cached readings
func (h *Handlers) GetSafety(w http.ResponseWriter, req *http.Request) {
	rep, err := h.station.SafetyReport()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetIsSafe refreshes the readings and reports whether the roof may stay open
func (h *Handlers) GetIsSafe(w http.ResponseWriter, req *http.Request) {
	safe, err := h.station.IsSafe(req.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IsSafeResponse{Safe: safe})
}

// GetEndpoint returns the device address
func (h *Handlers) GetEndpoint(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, h.station.Endpoint())
}

// PutEndpoint changes the device address; refused while connected
func (h *Handlers) PutEndpoint(w http.ResponseWriter, req *http.Request) {
	var body EndpointRequest
	if !h.decode(w, req, &body) {
		return
	}

	ep := weatherlinklive.Endpoint{Host: body.IPAddress, Port: body.Port}
	if err := h.station.SetEndpoint(ep); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.station.Endpoint())
}

// GetThresholds returns the wind thresholds
func (h *Handlers) GetThresholds(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, h.station.Thresholds())
}

// PutThresholds replaces the wind thresholds
func (h *Handlers) PutThresholds(w http.ResponseWriter, req *http.Request) {
	var body ThresholdsRequest
	if !h.decode(w, req, &body) {
		return
	}
	if *body.VeryWindy < *body.Windy {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "very_windy_threshold must not be below windy_threshold"})
		return
	}

	h.station.SetThresholds(weatherlinklive.Thresholds{
		Windy:        *body.Windy,
		VeryWindy:    *body.VeryWindy,
		CloseOnWindy: body.CloseOnWindy,
	})
	writeJSON(w, http.StatusOK, h.station.Thresholds())
}

// GetTransmitters describes every channel
func (h *Handlers) GetTransmitters(w http.ResponseWriter, req *http.Request) {
	out := make([]TransmitterResponse, 0)
	for _, t := range h.station.Transmitters() {
		out = append(out, TransmitterResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTransmitter describes one channel
func (h *Handlers) GetTransmitter(w http.ResponseWriter, req *http.Request) {
	c, ok := h.channel(w, req)
	if !ok {
		return
	}
	h.writeTransmitter(w, c)
}

// PutTransmitter selects the transmitter for one channel
func (h *Handlers) PutTransmitter(w http.ResponseWriter, req *http.Request) {
	c, ok := h.channel(w, req)
	if !ok {
		return
	}

	var body TransmitterRequest
	if !h.decode(w, req, &body) {
		return
	}

	if err := h.station.SetChannelTransmitter(req.Context(), c, body.TxID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeTransmitter(w, c)
}

// PostConnect links to the device
func (h *Handlers) PostConnect(w http.ResponseWriter, req *http.Request) {
	if err := h.station.Connect(req.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStatus(w)
}

// PostDisconnect unlinks from the device
func (h *Handlers) PostDisconnect(w http.ResponseWriter, req *http.Request) {
	h.station.Disconnect()
	h.writeStatus(w)
}

// PostRefresh runs a foreground fetch
func (h *Handlers) PostRefresh(w http.ResponseWriter, req *http.Request) {
	if err := h.station.Refresh(req.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.GetConditions(w, req)
}

// PostDiscover rebuilds the transmitter candidate sets
func (h *Handlers) PostDiscover(w http.ResponseWriter, req *http.Request) {
	if err := h.station.DiscoverTransmitters(req.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.GetTransmitters(w, req)
}

// PostSaveConfig persists the current settings
func (h *Handlers) PostSaveConfig(w http.ResponseWriter, req *http.Request) {
	if h.save == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "no configuration store"})
		return
	}
	if err := h.save(); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) channel(w http.ResponseWriter, req *http.Request) (weatherlinklive.Channel, bool) {
	c, err := weatherlinklive.ParseChannel(mux.Vars(req)["channel"])
	if err != nil {
		h.writeError(w, err)
		return 0, false
	}
	return c, true
}

func (h *Handlers) writeTransmitter(w http.ResponseWriter, c weatherlinklive.Channel) {
	sel, err := h.station.ChannelTransmitter(c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cands, err := h.station.ChannelCandidates(c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransmitterResponse{Channel: c.String(), Selected: sel, Candidates: cands})
}

func (h *Handlers) writeStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Connected: h.station.IsConnected(),
		Firmware:  h.station.Firmware(),
		Session:   h.station.SessionID(),
	})
}

// decode reads and validates a JSON body, answering 400 on failure
func (h *Handlers) decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// statusFor maps station errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, weatherlinklive.ErrUnknownChannel),
		errors.Is(err, weatherlinklive.ErrNoEndpoint):
		return http.StatusBadRequest
	case errors.Is(err, weatherlinklive.ErrConnected):
		return http.StatusConflict
	case errors.Is(err, config.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, weatherlinklive.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, weatherlinklive.ErrCommandFailed),
		errors.Is(err, weatherlinklive.ErrParseFailed),
		errors.Is(err, weatherlinklive.ErrDeviceReported),
		errors.Is(err, weatherlinklive.ErrTransportInitFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnf("Request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
