package weatherlinklive

const (
	// SentinelTemperature marks a temperature or dew point that wasn't reported
	SentinelTemperature = -273.15
	// SentinelMissing marks a wind, humidity, rain or pressure value that wasn't reported
	SentinelMissing = -1.0

	mphToKph   = 1.60934
	inHgToMbar = 33.86389
	inchToCm   = 2.54

	// DefaultRainDivisor turns the rainfall_last_15_min count into inches.
	// Firmware revisions disagree on whether the count is already in inches;
	// set the divisor to 1 for those.
	DefaultRainDivisor = 100.0
)

// FahrenheitToCelsius converts °F to °C
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) / 1.8
}

// MphToKph converts miles per hour to kilometres per hour
func MphToKph(mph float64) float64 {
	return mph * mphToKph
}

// InHgToMbar converts inches of mercury to millibars
func InHgToMbar(inHg float64) float64 {
	return inHg * inHgToMbar
}

// RainToCm converts a rainfall count to centimetres using the given divisor
func RainToCm(count, divisor float64) float64 {
	if divisor <= 0 {
		divisor = DefaultRainDivisor
	}
	return count / divisor * inchToCm
}

func tempOrSentinel(v Optional[float64]) float64 {
	if f, ok := v.Get(); ok {
		return FahrenheitToCelsius(f)
	}
	return SentinelTemperature
}

func speedOrSentinel(v Optional[float64]) float64 {
	if mph, ok := v.Get(); ok {
		return MphToKph(mph)
	}
	return SentinelMissing
}

func rainOrSentinel(v Optional[float64], divisor float64) float64 {
	if count, ok := v.Get(); ok {
		return RainToCm(count, divisor)
	}
	return SentinelMissing
}

func valueOrSentinel(v Optional[float64]) float64 {
	if f, ok := v.Get(); ok {
		return f
	}
	return SentinelMissing
}
