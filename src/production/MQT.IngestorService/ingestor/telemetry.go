package mqtingestor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PHSample is one telemetry message waiting to be stored
type PHSample struct {
	DeviceID   string
	PH         float64
	Topic      string
	ReceivedAt time.Time
}

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrInvalidPayload = errors.New("invalid payload")
)

// ParseTopic extracts the device id from acuario/<device_id>/ph
func ParseTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "ph" || parts[1] == "" {
		return "", fmt.Errorf("%w: %s, expected <prefix>/<device_id>/ph", ErrInvalidTopic, topic)
	}
	return parts[1], nil
}

// ParsePayload reads a pH value from {"ph": 7.1}, {"ph": "7.1"} or a bare number
func ParsePayload(payload []byte) (float64, error) {
	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPayload)
	}

	if raw[0] != '{' {
		return parsePH(strings.Trim(string(raw), `"`))
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	value, ok := body["ph"]
	if !ok {
		return 0, fmt.Errorf("%w: missing ph", ErrInvalidPayload)
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return parsePH(s)
	}
	return parsePH(string(value))
}

func parsePH(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPayload, s)
	}
	if v < 0 || v > 14 {
		return 0, fmt.Errorf("%w: pH %.2f out of scale", ErrInvalidPayload, v)
	}
	return v, nil
}
