// Package weatherlinklive provides support for Davis Instruments WeatherLink Live devices
package weatherlinklive

import (
	"bytes"
	"encoding/json"
	"time"
)

// Data structure types from WeatherLink Live API
const (
	DataStructureISS       = 1 // Integrated Sensor Suite
	DataStructureLeafSoil  = 2 // Leaf/soil moisture sensors
	DataStructureBarometer = 3 // WLL internal barometer
	DataStructureTempHum   = 4 // WLL internal temp/humidity
)

// Optional holds a JSON value that may be absent, present as null, or present
// with a value. The WLL reports a metric a transmitter doesn't carry as null,
// and older firmware omits the key entirely; both mean "not reported".
type Optional[T any] struct {
	Present bool // key appeared in the payload
	Valid   bool // key appeared with a non-null value
	Value   T
}

// UnmarshalJSON is only invoked when the key is present.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON renders a missing or null value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Get returns the value and whether it was reported.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Condition is one record of the data.conditions array. Each record belongs to
// a single transmitter (ISS, leaf/soil station) or to the WLL itself.
type Condition struct {
	DataStructureType Optional[int] `json:"data_structure_type"`
	TxID              Optional[int] `json:"txid"`

	// ISS (DataStructureISS) fields
	Temp                 Optional[float64] `json:"temp"`
	Humidity             Optional[float64] `json:"hum"`
	DewPoint             Optional[float64] `json:"dew_point"`
	WindSpeedAvgLast2Min Optional[float64] `json:"wind_speed_avg_last_2_min"`
	WindSpeedHiLast10Min Optional[float64] `json:"wind_speed_hi_last_10_min"`
	RainfallLast15Min    Optional[float64] `json:"rainfall_last_15_min"`

	// Barometer (DataStructureBarometer) fields
	BarSeaLevel Optional[float64] `json:"bar_sea_level"`
}

// CurrentConditions is the validated content of a /v1/current_conditions reply
type CurrentConditions struct {
	DID        string
	Conditions []Condition
}

// ReadingSnapshot holds the converted, consumer-facing values. Fields that
// have never been reported hold SentinelTemperature or SentinelMissing.
type ReadingSnapshot struct {
	AmbientTemp        float64   `json:"ambient_temp_c"`
	WindSpeed          float64   `json:"wind_speed_kph"`
	WindCondition      float64   `json:"wind_condition_kph"`
	Humidity           float64   `json:"humidity_pct"`
	DewPoint           float64   `json:"dew_point_c"`
	RainFlag           float64   `json:"rain_flag_cm"`
	RainCondition      float64   `json:"rain_condition_cm"`
	BarometricPressure float64   `json:"barometric_pressure_mbar"`
	Firmware           string    `json:"firmware"`
	UpdatedAt          time.Time `json:"updated_at"`
}
