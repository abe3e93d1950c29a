package weatherlinklive

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConditions(t *testing.T) {
	cc, err := ParseConditions(NormalizeResponse(twoISSPayload))
	require.NoError(t, err)

	assert.Equal(t, "001D0A700002", cc.DID)
	require.Len(t, cc.Conditions, 5)

	iss := cc.Conditions[0]
	assert.Equal(t, DataStructureISS, iss.DataStructureType.Value)
	assert.Equal(t, 1, iss.TxID.Value)
	temp, ok := iss.Temp.Get()
	assert.True(t, ok)
	assert.InDelta(t, 62.7, temp, 1e-9)

	second := cc.Conditions[1]
	assert.True(t, second.Temp.Present)
	assert.False(t, second.Temp.Valid)
	assert.True(t, second.WindSpeedAvgLast2Min.Valid)

	baro := cc.Conditions[4]
	assert.Equal(t, DataStructureBarometer, baro.DataStructureType.Value)
	assert.False(t, baro.TxID.Present)
	assert.InDelta(t, 30.008, baro.BarSeaLevel.Value, 1e-9)
}

func TestParseConditionsDeviceError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "string error", body: `{"error":"station offline","data":null}`, wantMsg: "station offline"},
		{name: "object error", body: `{"error":{"code":409,"message":"busy"},"data":null}`, wantMsg: "busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConditions(tt.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDeviceReported)

			var devErr *DeviceError
			require.True(t, errors.As(err, &devErr))
			assert.Equal(t, tt.wantMsg, devErr.Message)
		})
	}
}

func TestParseConditionsFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"error":null,"data":{`},
		{name: "not an object", body: `[1,2,3]`},
		{name: "null document", body: `null`},
		{name: "missing error key", body: `{"data":{"did":"x","conditions":[]}}`},
		{name: "missing data", body: `{"error":null}`},
		{name: "null data", body: `{"error":null,"data":null}`},
		{name: "missing conditions", body: `{"error":null,"data":{"did":"x"}}`},
		{name: "missing did", body: `{"error":null,"data":{"conditions":[]}}`},
		{name: "missing structure type", body: `{"error":null,"data":{"did":"x","conditions":[{"txid":1}]}}`},
		{name: "iss without txid", body: `{"error":null,"data":{"did":"x","conditions":[{"data_structure_type":1,"temp":50}]}}`},
		{name: "iss with null txid", body: `{"error":null,"data":{"did":"x","conditions":[{"data_structure_type":1,"txid":null}]}}`},
		{name: "string temperature", body: `{"error":null,"data":{"did":"x","conditions":[{"data_structure_type":1,"txid":1,"temp":"hot"}]}}`},
		{name: "barometer without pressure", body: `{"error":null,"data":{"did":"x","conditions":[{"data_structure_type":3}]}}`},
		{name: "numeric did", body: `{"error":null,"data":{"did":42,"conditions":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConditions(tt.body)
			assert.ErrorIs(t, err, ErrParseFailed)
		})
	}
}

func TestParseConditionsIgnoresUnconsumedTypes(t *testing.T) {
	body := `{"error":null,"data":{"did":"x","conditions":[
		{"data_structure_type":2,"txid":4,"moist_soil_1":12},
		{"data_structure_type":4,"temp_in":70.1},
		{"data_structure_type":6,"txid":9}
	]}}`

	cc, err := ParseConditions(NormalizeResponse(body))
	require.NoError(t, err)
	assert.Len(t, cc.Conditions, 3)
}

func TestOptionalUnmarshal(t *testing.T) {
	var v struct {
		A Optional[float64] `json:"a"`
		B Optional[float64] `json:"b"`
		C Optional[float64] `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":0,"b":null}`), &v))

	assert.True(t, v.A.Present)
	assert.True(t, v.A.Valid)
	assert.Equal(t, 0.0, v.A.Value)

	assert.True(t, v.B.Present)
	assert.False(t, v.B.Valid)

	assert.False(t, v.C.Present)
	assert.False(t, v.C.Valid)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0,"b":null,"c":null}`, string(out))
}
