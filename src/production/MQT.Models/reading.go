package mqtmodels

import "time"

// TimestampLayout is the ISO-8601 form readings are stored with.
// Fixed-width fractional seconds keep lexical order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reading is one immutable pH sample or dosing event for a device
type Reading struct {
	ID              string   `json:"id" bson:"_id" db:"id"`
	DeviceID        string   `json:"dispositivo_id" bson:"dispositivo_id" db:"dispositivo_id"`
	PH              *float64 `json:"ph" bson:"ph" db:"ph"`
	DosingActivated bool     `json:"dosificador_activado" bson:"dosificador_activado" db:"dosificador_activado"`
	Timestamp       string   `json:"timestamp" bson:"timestamp" db:"timestamp"`
}

// FormatTimestamp renders t the way readings carry it on the wire
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NormalizeTimestamp re-renders an RFC 3339 timestamp in UTC with fixed precision
func NormalizeTimestamp(ts string) (string, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}

// Time parses the reading timestamp. Zero time is returned when it cannot be parsed.
func (r Reading) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
