package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const did = "001D0A7000AA"

type simulatorConfig struct {
	Transmitters int
	WindOnly     string
	Comments     bool
	DeviceError  string
}

// issState is one simulated transmitter; values drift a little on every read
type issState struct {
	txid     int
	windOnly bool
	temp     float64
	hum      float64
	wind     float64
	rain     float64
}

type simulator struct {
	cfg simulatorConfig

	mu       sync.Mutex
	iss      []*issState
	pressure float64
	rng      *rand.Rand
}

func newSimulator(cfg simulatorConfig) (*simulator, error) {
	if cfg.Transmitters < 1 || cfg.Transmitters > 8 {
		return nil, fmt.Errorf("transmitters must be 1-8, got %d", cfg.Transmitters)
	}

	windOnly := map[int]bool{}
	for _, f := range strings.Split(cfg.WindOnly, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil || id < 1 || id > cfg.Transmitters {
			return nil, fmt.Errorf("invalid wind-only txid %q", f)
		}
		windOnly[id] = true
	}

	s := &simulator{
		cfg:      cfg,
		pressure: 30.01,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1)),
	}
	for id := 1; id <= cfg.Transmitters; id++ {
		s.iss = append(s.iss, &issState{
			txid:     id,
			windOnly: windOnly[id],
			temp:     55 + float64(id),
			hum:      60,
			wind:     4 + float64(id),
		})
	}
	return s, nil
}

// condition mirrors one element of data.conditions. Only ISS records carry
// issFields; non-ISS records leave those keys out entirely.
type condition struct {
	LSID              int  `json:"lsid"`
	DataStructureType int  `json:"data_structure_type"`
	TxID              *int `json:"txid,omitempty"`

	*issFields

	BarSeaLevel *float64 `json:"bar_sea_level,omitempty"`
	BarAbsolute *float64 `json:"bar_absolute,omitempty"`
	TempIn      *float64 `json:"temp_in,omitempty"`
}

// issFields renders a metric the transmitter lacks as an explicit null, the
// way the device reports a wind-only ISS
type issFields struct {
	Temp        *float64 `json:"temp"`
	Hum         *float64 `json:"hum"`
	DewPoint    *float64 `json:"dew_point"`
	WindAvg2Min *float64 `json:"wind_speed_avg_last_2_min"`
	WindHi10Min *float64 `json:"wind_speed_hi_last_10_min"`
	Rain15Min   *float64 `json:"rainfall_last_15_min"`
}

type reply struct {
	Data  *replyData `json:"data"`
	Error any        `json:"error"`
}

type replyData struct {
	DID        string      `json:"did"`
	TS         int64       `json:"ts"`
	Conditions []condition `json:"conditions"`
}

func ptr[T any](v T) *T { return &v }

func round(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// snapshot advances the random walk and renders a reply
func (s *simulator) snapshot(now time.Time) reply {
	if s.cfg.DeviceError != "" {
		return reply{Error: map[string]any{"code": 503, "message": s.cfg.DeviceError}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := &replyData{DID: did, TS: now.Unix()}
	for _, iss := range s.iss {
		iss.wind = max(0, iss.wind+s.rng.NormFloat64()*0.5)
		c := condition{
			LSID:              48300 + iss.txid,
			DataStructureType: 1,
			TxID:              ptr(iss.txid),
			issFields: &issFields{
				WindAvg2Min: ptr(round(iss.wind)),
				WindHi10Min: ptr(round(iss.wind * 1.6)),
			},
		}
		if !iss.windOnly {
			iss.temp += s.rng.NormFloat64() * 0.1
			iss.hum = min(100, max(0, iss.hum+s.rng.NormFloat64()*0.3))
			c.Temp = ptr(round(iss.temp))
			c.Hum = ptr(round(iss.hum))
			c.DewPoint = ptr(round(iss.temp - (100-iss.hum)*9/25))
			c.Rain15Min = ptr(round(iss.rain))
		}
		data.Conditions = append(data.Conditions, c)
	}

	s.pressure += s.rng.NormFloat64() * 0.002
	data.Conditions = append(data.Conditions,
		condition{LSID: 48307, DataStructureType: 4, TempIn: ptr(71.3)},
		condition{LSID: 48306, DataStructureType: 3, BarSeaLevel: ptr(s.pressure), BarAbsolute: ptr(s.pressure - 0.25)},
	)

	return reply{Data: data}
}

func (s *simulator) writeReply(w io.Writer, now time.Time) error {
	body, err := json.MarshalIndent(s.snapshot(now), "", "  ")
	if err != nil {
		return err
	}
	if s.cfg.Comments {
		io.WriteString(w, "<!-- served by wll-simulator -->\n")
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if s.cfg.Comments {
		io.WriteString(w, "\n<!-- end -->\n")
	}
	return nil
}

// ServeConditions answers GET /v1/current_conditions
func (s *simulator) ServeConditions(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.writeReply(w, time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
