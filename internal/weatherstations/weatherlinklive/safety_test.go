package weatherlinklive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyWind(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		kph  float64
		want WindCondition
	}{
		{kph: SentinelMissing, want: WindCalm},
		{kph: 0, want: WindCalm},
		{kph: 19.9, want: WindCalm},
		{kph: 20, want: WindWindy},
		{kph: 25, want: WindWindy},
		{kph: 30, want: WindVeryWindy},
		{kph: 80, want: WindVeryWindy},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, th.ClassifyWind(tt.kph), "%.1f km/h", tt.kph)
	}
}

func calmSnapshot() ReadingSnapshot {
	return ReadingSnapshot{
		AmbientTemp:        12.5,
		WindSpeed:          4,
		WindCondition:      8,
		Humidity:           55.7,
		DewPoint:           3.2,
		RainFlag:           0,
		RainCondition:      0,
		BarometricPressure: 1016.2,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ReadingSnapshot)
		th        Thresholds
		wantWind  WindCondition
		wantRain  RainCondition
		wantClose bool
	}{
		{
			name:     "calm and dry",
			th:       DefaultThresholds(),
			wantWind: WindCalm,
			wantRain: RainDry,
		},
		{
			name:     "windy without close on windy",
			mutate:   func(s *ReadingSnapshot) { s.WindCondition = 25 },
			th:       DefaultThresholds(),
			wantWind: WindWindy,
			wantRain: RainDry,
		},
		{
			name:      "windy with close on windy",
			mutate:    func(s *ReadingSnapshot) { s.WindCondition = 25 },
			th:        Thresholds{Windy: 20, VeryWindy: 30, CloseOnWindy: true},
			wantWind:  WindWindy,
			wantRain:  RainDry,
			wantClose: true,
		},
		{
			name:      "very windy",
			mutate:    func(s *ReadingSnapshot) { s.WindCondition = 31 },
			th:        DefaultThresholds(),
			wantWind:  WindVeryWindy,
			wantRain:  RainDry,
			wantClose: true,
		},
		{
			name:      "raining",
			mutate:    func(s *ReadingSnapshot) { s.RainFlag = 0.254 },
			th:        DefaultThresholds(),
			wantWind:  WindCalm,
			wantRain:  RainRain,
			wantClose: true,
		},
		{
			name:     "rain not reported",
			mutate:   func(s *ReadingSnapshot) { s.RainFlag = SentinelMissing },
			th:       DefaultThresholds(),
			wantWind: WindCalm,
			wantRain: RainDry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := calmSnapshot()
			if tt.mutate != nil {
				tt.mutate(&snap)
			}

			rep := Classify(snap, tt.th)
			assert.Equal(t, tt.wantWind, rep.WindCondition)
			assert.Equal(t, tt.wantRain, rep.RainCondition)
			assert.Equal(t, tt.wantClose, rep.CloseRoof)
			assert.Equal(t, rep.RainFlag, rep.WetFlag)
			if tt.wantRain == RainRain {
				assert.Equal(t, 2, rep.RainFlag)
			} else {
				assert.Equal(t, 0, rep.RainFlag)
			}
		})
	}
}

func TestClassifyCopiesReadings(t *testing.T) {
	rep := Classify(calmSnapshot(), DefaultThresholds())

	assert.Equal(t, 12.5, rep.AmbientTemp)
	assert.Equal(t, 4.0, rep.WindSpeed)
	assert.Equal(t, UnitKPH, rep.WindSpeedUnit)
	assert.Equal(t, 55, rep.Humidity)
	assert.Equal(t, 3.2, rep.DewPoint)
	assert.Equal(t, 1016.2, rep.BarometricPressure)
	assert.Equal(t, 1, rep.SecondsSinceGoodData)
}

func TestSafetyReportJSON(t *testing.T) {
	snap := calmSnapshot()
	snap.WindCondition = 33
	out, err := json.Marshal(Classify(snap, DefaultThresholds()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "very_windy", m["wind_condition"])
	assert.Equal(t, "dry", m["rain_condition"])
	assert.Equal(t, "km/h", m["wind_speed_unit"])
	assert.Equal(t, true, m["close_roof"])
}
