package weatherlinklive

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issPayload(fields string) string {
	return fmt.Sprintf(`{"error":null,"data":{"did":"ABC","conditions":[{"data_structure_type":1,"txid":1%s}]}}`, fields)
}

func applyBody(t *testing.T, c *ReadingCache, body string, sel Selection) {
	t.Helper()
	cc, err := ParseConditions(NormalizeResponse(body))
	require.NoError(t, err)
	c.Apply(cc, sel, DefaultRainDivisor)
}

func TestConversions(t *testing.T) {
	assert.InDelta(t, 0.0, FahrenheitToCelsius(32), 1e-9)
	assert.InDelta(t, 100.0, FahrenheitToCelsius(212), 1e-9)
	assert.InDelta(t, 1013.21, InHgToMbar(29.92), 0.01)
	assert.InDelta(t, 1013.25, InHgToMbar(29.9213), 0.01)
	assert.InDelta(t, 16.0934, MphToKph(10), 1e-9)
	assert.InDelta(t, 2.54, RainToCm(100, 100), 1e-9)
	assert.InDelta(t, 2.54, RainToCm(1, 1), 1e-9)
	assert.InDelta(t, 2.54, RainToCm(100, 0), 1e-9)
}

func TestNewReadingCacheSentinels(t *testing.T) {
	snap := NewReadingCache().Snapshot()

	assert.Equal(t, SentinelTemperature, snap.AmbientTemp)
	assert.Equal(t, SentinelTemperature, snap.DewPoint)
	assert.Equal(t, SentinelMissing, snap.WindSpeed)
	assert.Equal(t, SentinelMissing, snap.WindCondition)
	assert.Equal(t, SentinelMissing, snap.Humidity)
	assert.Equal(t, SentinelMissing, snap.RainFlag)
	assert.Equal(t, SentinelMissing, snap.RainCondition)
	assert.Equal(t, SentinelMissing, snap.BarometricPressure)
	assert.True(t, snap.UpdatedAt.IsZero())
}

func TestApplyFullPayload(t *testing.T) {
	c := NewReadingCache()
	applyBody(t, c, twoISSPayload, DefaultSelection())

	snap := c.Snapshot()
	assert.InDelta(t, (62.7-32)/1.8, snap.AmbientTemp, 1e-9)
	assert.InDelta(t, 2.0*1.60934, snap.WindSpeed, 1e-9)
	assert.InDelta(t, 6.0*1.60934, snap.WindCondition, 1e-9)
	assert.InDelta(t, 1.1, snap.Humidity, 1e-9)
	assert.InDelta(t, (-0.3-32)/1.8, snap.DewPoint, 1e-9)
	assert.Equal(t, 0.0, snap.RainFlag)
	assert.Equal(t, 0.0, snap.RainCondition)
	assert.InDelta(t, 30.008*33.86389, snap.BarometricPressure, 1e-9)
	assert.Equal(t, "WeatherLink Live 001D0A700002", snap.Firmware)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestApplyTemperatureRoundTrip(t *testing.T) {
	tests := []struct {
		f, c float64
	}{
		{f: 32.0, c: 0.0},
		{f: 212.0, c: 100.0},
		{f: -40.0, c: -40.0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1fF", tt.f), func(t *testing.T) {
			c := NewReadingCache()
			applyBody(t, c, issPayload(fmt.Sprintf(`,"temp":%f,"dew_point":%f`, tt.f, tt.f)), DefaultSelection())
			assert.InDelta(t, tt.c, c.AmbientTemp(), 1e-9)
			assert.InDelta(t, tt.c, c.DewPoint(), 1e-9)
		})
	}
}

func TestApplyMissingFieldsGiveSentinels(t *testing.T) {
	c := NewReadingCache()
	applyBody(t, c, issPayload(`,"temp":50,"hum":40,"dew_point":30,"wind_speed_avg_last_2_min":5,"wind_speed_hi_last_10_min":9,"rainfall_last_15_min":2`), DefaultSelection())
	require.NotEqual(t, SentinelMissing, c.WindSpeed())

	// wind keys absent, other metrics null
	applyBody(t, c, issPayload(`,"temp":null,"hum":null,"dew_point":null,"rainfall_last_15_min":null`), DefaultSelection())

	assert.Equal(t, SentinelMissing, c.WindSpeed())
	assert.Equal(t, SentinelMissing, c.WindCondition())
	assert.Equal(t, SentinelTemperature, c.AmbientTemp())
	assert.Equal(t, SentinelTemperature, c.DewPoint())
	assert.Equal(t, SentinelMissing, c.Humidity())
	assert.Equal(t, SentinelMissing, c.RainFlag())
	assert.Equal(t, SentinelMissing, c.RainCondition())
}

func TestApplyZeroIsNotMissing(t *testing.T) {
	c := NewReadingCache()
	applyBody(t, c, issPayload(`,"wind_speed_avg_last_2_min":0,"wind_speed_hi_last_10_min":0,"hum":0,"rainfall_last_15_min":0`), DefaultSelection())

	assert.Equal(t, 0.0, c.WindSpeed())
	assert.Equal(t, 0.0, c.WindCondition())
	assert.Equal(t, 0.0, c.Humidity())
	assert.Equal(t, 0.0, c.RainFlag())
}

func TestApplySelectionGuard(t *testing.T) {
	c := NewReadingCache()

	sel := DefaultSelection()
	sel[ChannelWind] = 2
	applyBody(t, c, twoISSPayload, sel)

	// wind follows transmitter 2, everything else stays on transmitter 1
	assert.InDelta(t, 10.0*1.60934, c.WindSpeed(), 1e-9)
	assert.InDelta(t, 20.0*1.60934, c.WindCondition(), 1e-9)
	assert.InDelta(t, (62.7-32)/1.8, c.AmbientTemp(), 1e-9)

	// a selection no record matches leaves the cached value alone
	sel[ChannelTemperature] = 7
	before := c.AmbientTemp()
	applyBody(t, c, issPayload(`,"temp":99`), sel)
	assert.Equal(t, before, c.AmbientTemp())
}

func TestApplyRainDivisor(t *testing.T) {
	cc, err := ParseConditions(issPayload(`,"rainfall_last_15_min":4`))
	require.NoError(t, err)

	c := NewReadingCache()
	c.Apply(cc, DefaultSelection(), 100)
	assert.InDelta(t, 4.0/100*2.54, c.RainFlag(), 1e-9)
	assert.Equal(t, c.RainFlag(), c.RainCondition())

	c.Apply(cc, DefaultSelection(), 1)
	assert.InDelta(t, 4.0*2.54, c.RainCondition(), 1e-9)
}

func TestReadingCacheConcurrentAccess(t *testing.T) {
	cc, err := ParseConditions(NormalizeResponse(twoISSPayload))
	require.NoError(t, err)

	c := NewReadingCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Apply(cc, DefaultSelection(), DefaultRainDivisor)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "WeatherLink Live 001D0A700002", c.Firmware())
}
