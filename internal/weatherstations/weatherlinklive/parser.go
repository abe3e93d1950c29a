package weatherlinklive

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseConditions parses a normalized /v1/current_conditions body. A populated
// "error" field yields a *DeviceError; any missing required key, type mismatch
// or malformed JSON yields ErrParseFailed.
func ParseConditions(body string) (*CurrentConditions, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: response is not an object", ErrParseFailed)
	}

	rawErr, ok := top["error"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"error\" key", ErrParseFailed)
	}
	if !isNull(rawErr) {
		return nil, decodeDeviceError(rawErr)
	}

	rawData, ok := top["data"]
	if !ok || isNull(rawData) {
		return nil, fmt.Errorf("%w: missing \"data\" object", ErrParseFailed)
	}

	var data struct {
		DID        Optional[string]            `json:"did"`
		Conditions Optional[[]json.RawMessage] `json:"conditions"`
	}
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if !data.Conditions.Valid {
		return nil, fmt.Errorf("%w: missing \"data.conditions\" array", ErrParseFailed)
	}
	if !data.DID.Valid {
		return nil, fmt.Errorf("%w: missing \"data.did\"", ErrParseFailed)
	}

	cc := &CurrentConditions{
		DID:        data.DID.Value,
		Conditions: make([]Condition, 0, len(data.Conditions.Value)),
	}

	for i, raw := range data.Conditions.Value {
		var cond Condition
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("%w: condition %d: %v", ErrParseFailed, i, err)
		}
		if err := validateCondition(cond); err != nil {
			return nil, fmt.Errorf("%w: condition %d: %v", ErrParseFailed, i, err)
		}
		cc.Conditions = append(cc.Conditions, cond)
	}

	return cc, nil
}

// validateCondition checks the keys a record of each structure type must carry
func validateCondition(cond Condition) error {
	if !cond.DataStructureType.Valid {
		return fmt.Errorf("missing data_structure_type")
	}

	switch cond.DataStructureType.Value {
	case DataStructureISS:
		if !cond.TxID.Valid {
			return fmt.Errorf("ISS record without txid")
		}
	case DataStructureBarometer:
		if !cond.BarSeaLevel.Valid {
			return fmt.Errorf("barometer record without bar_sea_level")
		}
	}
	return nil
}

// decodeDeviceError accepts the plain string some firmware returns as well as
// the {code, message} object documented for the local API
func decodeDeviceError(raw json.RawMessage) error {
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &DeviceError{Message: msg}
	}

	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return fmt.Errorf("%w: unreadable \"error\" field: %v", ErrParseFailed, err)
	}
	return &DeviceError{Message: apiErr.Message}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
