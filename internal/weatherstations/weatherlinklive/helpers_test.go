package weatherlinklive

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// twoISSPayload is a WLL reply with two ISS transmitters (only the first one
// carries temperature, humidity, dew point and rain), a soil station, the
// internal temp/hum sensor and the barometer.
const twoISSPayload = `{
  "data": {
    "did": "001D0A700002",
    "ts": 1531754005,
    "conditions": [
      {
        "lsid": 48308,
        "data_structure_type": 1,
        "txid": 1,
        "temp": 62.7,
        "hum": 1.1,
        "dew_point": -0.3,
        "wind_speed_last": 2.0,
        "wind_speed_avg_last_2_min": 2.0,
        "wind_speed_hi_last_10_min": 6.0,
        "rain_size": 2,
        "rainfall_last_15_min": 0,
        "trans_battery_flag": 0
      },
      {
        "lsid": 48309,
        "data_structure_type": 1,
        "txid": 2,
        "temp": null,
        "hum": null,
        "dew_point": null,
        "wind_speed_avg_last_2_min": 10.0,
        "wind_speed_hi_last_10_min": 20.0,
        "rainfall_last_15_min": null
      },
      {
        "lsid": 3187671188,
        "data_structure_type": 2,
        "txid": 3,
        "temp_1": null,
        "moist_soil_1": null
      },
      {
        "lsid": 48307,
        "data_structure_type": 4,
        "temp_in": 78.0,
        "hum_in": 41.1
      },
      {
        "lsid": 48306,
        "data_structure_type": 3,
        "bar_sea_level": 30.008,
        "bar_trend": null,
        "bar_absolute": 29.763
      }
    ]
  },
  "error": null
}`

// fakeDevice is a WLL stand-in whose reply can be swapped during a test
type fakeDevice struct {
	mu       sync.Mutex
	body     string
	status   int
	requests atomic.Int64
	srv      *httptest.Server
}

func newFakeDevice(t *testing.T, body string) *fakeDevice {
	t.Helper()

	d := &fakeDevice{body: body, status: http.StatusOK}
	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.requests.Add(1)
		if r.URL.Path != currentConditionsPath {
			http.NotFound(w, r)
			return
		}
		d.mu.Lock()
		body, status := d.body, d.status
		d.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *fakeDevice) set(body string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.body = body
	d.status = status
}

func (d *fakeDevice) endpoint(t *testing.T) Endpoint {
	t.Helper()

	u, err := url.Parse(d.srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return Endpoint{Host: host, Port: p}
}

func testOptions() Options {
	return Options{
		PollInterval:   20 * time.Millisecond,
		ConnectTimeout: time.Second,
		RequestTimeout: 2 * time.Second,
		RainDivisor:    DefaultRainDivisor,
	}
}

// newTestStation builds a station pointed at dev and disconnects it when the
// test ends
func newTestStation(t *testing.T, dev *fakeDevice, sel Selection) *Station {
	t.Helper()

	st := NewStation(StationConfig{
		Name:       "test",
		Endpoint:   dev.endpoint(t),
		Selection:  sel,
		Thresholds: DefaultThresholds(),
		Options:    testOptions(),
	}, nil)
	t.Cleanup(st.Disconnect)
	return st
}
