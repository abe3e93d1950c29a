package weatherlinklive

import (
	"math"
	"sync/atomic"
	"time"
)

// atomicFloat is a float64 that can be loaded and stored without a lock
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// ReadingCache holds the last converted value of every metric. Each field is
// stored independently, so a reader racing a poll may see a mix of old and
// new values.
type ReadingCache struct {
	ambientTemp        atomicFloat
	windSpeed          atomicFloat
	windCondition      atomicFloat
	humidity           atomicFloat
	dewPoint           atomicFloat
	rainFlag           atomicFloat
	rainCondition      atomicFloat
	barometricPressure atomicFloat
	firmware           atomic.Pointer[string]
	updatedAt          atomic.Int64
}

// NewReadingCache returns a cache with every field at its sentinel
func NewReadingCache() *ReadingCache {
	c := &ReadingCache{}
	c.Reset()
	return c
}

// Reset puts every field back to its sentinel
func (c *ReadingCache) Reset() {
	c.ambientTemp.Store(SentinelTemperature)
	c.windSpeed.Store(SentinelMissing)
	c.windCondition.Store(SentinelMissing)
	c.humidity.Store(SentinelMissing)
	c.dewPoint.Store(SentinelTemperature)
	c.rainFlag.Store(SentinelMissing)
	c.rainCondition.Store(SentinelMissing)
	c.barometricPressure.Store(SentinelMissing)
	empty := ""
	c.firmware.Store(&empty)
	c.updatedAt.Store(0)
}

func (c *ReadingCache) AmbientTemp() float64        { return c.ambientTemp.Load() }
func (c *ReadingCache) WindSpeed() float64          { return c.windSpeed.Load() }
func (c *ReadingCache) WindCondition() float64      { return c.windCondition.Load() }
func (c *ReadingCache) Humidity() float64           { return c.humidity.Load() }
func (c *ReadingCache) DewPoint() float64           { return c.dewPoint.Load() }
func (c *ReadingCache) RainFlag() float64           { return c.rainFlag.Load() }
func (c *ReadingCache) RainCondition() float64      { return c.rainCondition.Load() }
func (c *ReadingCache) BarometricPressure() float64 { return c.barometricPressure.Load() }

// Firmware returns the display string built from the device id
func (c *ReadingCache) Firmware() string {
	if p := c.firmware.Load(); p != nil {
		return *p
	}
	return ""
}

// UpdatedAt returns the time of the last applied pass, or the zero time
func (c *ReadingCache) UpdatedAt() time.Time {
	ns := c.updatedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Snapshot copies every field. The copy is not transactional.
func (c *ReadingCache) Snapshot() ReadingSnapshot {
	return ReadingSnapshot{
		AmbientTemp:        c.AmbientTemp(),
		WindSpeed:          c.WindSpeed(),
		WindCondition:      c.WindCondition(),
		Humidity:           c.Humidity(),
		DewPoint:           c.DewPoint(),
		RainFlag:           c.RainFlag(),
		RainCondition:      c.RainCondition(),
		BarometricPressure: c.BarometricPressure(),
		Firmware:           c.Firmware(),
		UpdatedAt:          c.UpdatedAt(),
	}
}

// Apply writes a parsed payload into the cache. ISS records only update the
// channels whose selected transmitter matches the record's txid; the
// barometer record is unique per WLL and always applies. Leaf/soil and
// internal temp/hum records carry nothing we publish.
func (c *ReadingCache) Apply(cc *CurrentConditions, sel Selection, rainDivisor float64) {
	for _, cond := range cc.Conditions {
		switch cond.DataStructureType.Value {
		case DataStructureISS:
			c.applyISS(cond, sel, rainDivisor)
		case DataStructureBarometer:
			c.barometricPressure.Store(InHgToMbar(cond.BarSeaLevel.Value))
		case DataStructureLeafSoil, DataStructureTempHum:
		}
	}

	fw := "WeatherLink Live " + cc.DID
	c.firmware.Store(&fw)
	c.updatedAt.Store(time.Now().UnixNano())
}

func (c *ReadingCache) applyISS(cond Condition, sel Selection, rainDivisor float64) {
	txid := cond.TxID.Value

	if sel.Get(ChannelTemperature) == txid {
		c.ambientTemp.Store(tempOrSentinel(cond.Temp))
	}

	if sel.Get(ChannelWind) == txid {
		c.windSpeed.Store(speedOrSentinel(cond.WindSpeedAvgLast2Min))
		c.windCondition.Store(speedOrSentinel(cond.WindSpeedHiLast10Min))
	}

	if sel.Get(ChannelRain) == txid {
		rain := rainOrSentinel(cond.RainfallLast15Min, rainDivisor)
		c.rainFlag.Store(rain)
		c.rainCondition.Store(rain)
	}

	if sel.Get(ChannelHumidity) == txid {
		c.humidity.Store(valueOrSentinel(cond.Humidity))
	}

	if sel.Get(ChannelDewPoint) == txid {
		c.dewPoint.Store(tempOrSentinel(cond.DewPoint))
	}
}
