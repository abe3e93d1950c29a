package weatherlinklive

import "fmt"

// WindCondition classifies the wind "condition" speed against the thresholds
type WindCondition int

const (
	WindCalm WindCondition = iota
	WindWindy
	WindVeryWindy
)

func (w WindCondition) String() string {
	switch w {
	case WindCalm:
		return "calm"
	case WindWindy:
		return "windy"
	case WindVeryWindy:
		return "very_windy"
	}
	return fmt.Sprintf("wind(%d)", int(w))
}

func (w WindCondition) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// RainCondition is dry or rain
type RainCondition int

const (
	RainDry RainCondition = iota
	RainRain
)

func (r RainCondition) String() string {
	if r == RainRain {
		return "rain"
	}
	return "dry"
}

func (r RainCondition) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// WindSpeedUnit is the unit wind values are published in
type WindSpeedUnit int

// UnitKPH is the only unit the host is given
const UnitKPH WindSpeedUnit = 0

func (u WindSpeedUnit) String() string {
	return "km/h"
}

func (u WindSpeedUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// rainFlagWet is the value the observatory host expects for a wet sensor
const rainFlagWet = 2

// Thresholds drive the wind classification and the roof-close decision
type Thresholds struct {
	Windy        float64 `json:"windy_threshold"`
	VeryWindy    float64 `json:"very_windy_threshold"`
	CloseOnWindy bool    `json:"close_on_windy"`
}

// DefaultThresholds are used when nothing is configured
func DefaultThresholds() Thresholds {
	return Thresholds{Windy: 20, VeryWindy: 30}
}

// ClassifyWind maps a wind speed in km/h to a WindCondition
func (t Thresholds) ClassifyWind(kph float64) WindCondition {
	cond := WindCalm
	if kph >= t.Windy {
		cond = WindWindy
	}
	if kph >= t.VeryWindy {
		cond = WindVeryWindy
	}
	return cond
}

// SafetyReport is what the observatory host reads each cycle
type SafetyReport struct {
	AmbientTemp          float64       `json:"ambient_temp_c"`
	WindSpeed            float64       `json:"wind_speed"`
	WindSpeedUnit        WindSpeedUnit `json:"wind_speed_unit"`
	Humidity             int           `json:"humidity_pct"`
	DewPoint             float64       `json:"dew_point_c"`
	BarometricPressure   float64       `json:"barometric_pressure_mbar"`
	RainFlag             int           `json:"rain_flag"`
	WetFlag              int           `json:"wet_flag"`
	SecondsSinceGoodData int           `json:"seconds_since_good_data"`
	WindCondition        WindCondition `json:"wind_condition"`
	RainCondition        RainCondition `json:"rain_condition"`
	CloseRoof            bool          `json:"close_roof"`
}

// Classify derives the safety signals from a snapshot. Rain always closes the
// roof, as does very windy; windy closes it only with CloseOnWindy set.
func Classify(snap ReadingSnapshot, th Thresholds) SafetyReport {
	rep := SafetyReport{
		AmbientTemp:          snap.AmbientTemp,
		WindSpeed:            snap.WindSpeed,
		WindSpeedUnit:        UnitKPH,
		Humidity:             int(snap.Humidity),
		DewPoint:             snap.DewPoint,
		BarometricPressure:   snap.BarometricPressure,
		SecondsSinceGoodData: 1,
		WindCondition:        th.ClassifyWind(snap.WindCondition),
		RainCondition:        RainDry,
	}

	if snap.RainFlag > 0 {
		rep.RainFlag = rainFlagWet
		rep.RainCondition = RainRain
	}
	rep.WetFlag = rep.RainFlag

	rep.CloseRoof = rep.RainFlag != 0
	if !rep.CloseRoof {
		if (th.CloseOnWindy && rep.WindCondition == WindWindy) || rep.WindCondition == WindVeryWindy {
			rep.CloseRoof = true
		}
	}

	return rep
}
