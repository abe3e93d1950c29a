package weatherlinklive

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Channel is a logical sensor channel fed by one selected transmitter
type Channel int

const (
	ChannelTemperature Channel = iota
	ChannelWind
	ChannelRain
	ChannelHumidity
	ChannelDewPoint

	numChannels
)

// DefaultTransmitterID is the WLL's implicit default transmitter
const DefaultTransmitterID = 1

var channelNames = [numChannels]string{
	ChannelTemperature: "temperature",
	ChannelWind:        "wind",
	ChannelRain:        "rain",
	ChannelHumidity:    "humidity",
	ChannelDewPoint:    "dew_point",
}

// Channels returns every logical channel in display order
func Channels() []Channel {
	return []Channel{ChannelTemperature, ChannelWind, ChannelRain, ChannelHumidity, ChannelDewPoint}
}

func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Valid reports whether c is one of the five known channels
func (c Channel) Valid() bool {
	return c >= 0 && c < numChannels
}

// ParseChannel looks a channel up by name ("dew-point" and "dewpoint" are accepted too)
func ParseChannel(name string) (Channel, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_").Replace(n)
	if n == "dewpoint" || n == "dew" {
		n = "dew_point"
	}
	if n == "temp" {
		n = "temperature"
	}
	if n == "hum" {
		n = "humidity"
	}
	for i, cn := range channelNames {
		if cn == n {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// reports tells whether an ISS record carries a value for the channel.
// Wind discovery keys off the 2-minute average, which is the speed we publish.
func (c Channel) reports(cond Condition) bool {
	switch c {
	case ChannelTemperature:
		return cond.Temp.Valid
	case ChannelWind:
		return cond.WindSpeedAvgLast2Min.Valid
	case ChannelRain:
		return cond.RainfallLast15Min.Valid
	case ChannelHumidity:
		return cond.Humidity.Valid
	case ChannelDewPoint:
		return cond.DewPoint.Valid
	}
	return false
}

// Selection is a point-in-time copy of the selected transmitter per channel
type Selection [numChannels]int

// Get returns the transmitter selected for c
func (s Selection) Get(c Channel) int {
	if !c.Valid() {
		return 0
	}
	return s[c]
}

// DefaultSelection selects DefaultTransmitterID on every channel
func DefaultSelection() Selection {
	var s Selection
	for i := range s {
		s[i] = DefaultTransmitterID
	}
	return s
}

// ChannelTransmitters describes one channel for display
type ChannelTransmitters struct {
	Channel    string `json:"channel"`
	Selected   int    `json:"selected"`
	Candidates []int  `json:"candidates"`
}

// Resolver tracks which transmitter feeds each channel and which transmitters
// were last seen reporting a value for it
type Resolver struct {
	mu         sync.RWMutex
	selected   Selection
	candidates [numChannels][]int
}

// NewResolver creates a resolver with the given initial selection
func NewResolver(initial Selection) *Resolver {
	r := &Resolver{selected: initial}
	for i, id := range r.selected {
		if id <= 0 {
			r.selected[i] = DefaultTransmitterID
		}
	}
	return r
}

// Selected returns the transmitter selected for a channel
func (r *Resolver) Selected(c Channel) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, int(c))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected[c], nil
}

// Select changes the transmitter selected for a channel
func (r *Resolver) Select(c Channel, txid int) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, int(c))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected[c] = txid
	return nil
}

// Selection returns a copy of every channel's selection
func (r *Resolver) Selection() Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// Candidates returns the transmitters last discovered for a channel
func (r *Resolver) Candidates(c Channel) ([]int, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(c))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, len(r.candidates[c]))
	copy(out, r.candidates[c])
	return out, nil
}

// Clear empties every candidate set
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.candidates {
		r.candidates[i] = nil
	}
}

// Rebuild replaces the candidate sets with the transmitters currently
// reporting each metric. IDs keep their order of first appearance.
func (r *Resolver) Rebuild(conditions []Condition) {
	var next [numChannels][]int

	for _, cond := range conditions {
		if cond.DataStructureType.Value != DataStructureISS || !cond.TxID.Valid {
			continue
		}
		txid := cond.TxID.Value
		for _, c := range Channels() {
			if c.reports(cond) && !slices.Contains(next[c], txid) {
				next[c] = append(next[c], txid)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = next
}

// ValidateSelections resets to DefaultTransmitterID every selection that is
// not among its channel's candidates, returning the channels that were reset
func (r *Resolver) ValidateSelections() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reset []Channel
	for _, c := range Channels() {
		if !slices.Contains(r.candidates[c], r.selected[c]) {
			if r.selected[c] != DefaultTransmitterID {
				reset = append(reset, c)
			}
			r.selected[c] = DefaultTransmitterID
		}
	}
	return reset
}

// Describe returns selection and candidates for every channel
func (r *Resolver) Describe() []ChannelTransmitters {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelTransmitters, 0, numChannels)
	for _, c := range Channels() {
		cands := make([]int, len(r.candidates[c]))
		copy(cands, r.candidates[c])
		out = append(out, ChannelTransmitters{
			Channel:    c.String(),
			Selected:   r.selected[c],
			Candidates: cands,
		})
	}
	return out
}
