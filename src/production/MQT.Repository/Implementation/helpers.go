package implementation

import (
	"sort"
	"strconv"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// Create payloads leave the id out so the store assigns one

type devicePayload struct {
	Name      string                `json:"nombre"`
	Type      string                `json:"tipo"`
	Location  string                `json:"ubicacion"`
	IP        string                `json:"ip,omitempty"`
	State     mqtmodels.DeviceState `json:"estado"`
	CurrentPH *float64              `json:"ph_actual"`
	TargetPH  *float64              `json:"ph_objetivo"`
	Automatic bool                  `json:"automatico"`
}

func newDevicePayload(d mqtmodels.Device) devicePayload {
	return devicePayload{
		Name:      d.Name,
		Type:      d.Type,
		Location:  d.Location,
		IP:        d.IP,
		State:     d.State,
		CurrentPH: d.CurrentPH,
		TargetPH:  d.TargetPH,
		Automatic: d.Automatic,
	}
}

type readingPayload struct {
	DeviceID        string   `json:"dispositivo_id"`
	PH              *float64 `json:"ph"`
	DosingActivated bool     `json:"dosificador_activado"`
	Timestamp       string   `json:"timestamp"`
}

func newReadingPayload(r mqtmodels.Reading) readingPayload {
	return readingPayload{
		DeviceID:        r.DeviceID,
		PH:              r.PH,
		DosingActivated: r.DosingActivated,
		Timestamp:       r.Timestamp,
	}
}

type commandPayload struct {
	Device string `json:"dispositivo"`
	Action string `json:"accion"`
	Date   string `json:"fecha"`
	Status string `json:"estado"`
	User   string `json:"usuario"`
}

func newCommandPayload(c mqtmodels.Command) commandPayload {
	return commandPayload{Device: c.Device, Action: c.Action, Date: c.Date, Status: c.Status, User: c.User}
}

func deviceField(d mqtmodels.Device, name string) (string, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "nombre":
		return d.Name, true
	case "tipo":
		return d.Type, true
	case "ubicacion":
		return d.Location, true
	case "ip":
		return d.IP, true
	case interfaces.FieldState:
		return string(d.State), true
	case "automatico":
		return strconv.FormatBool(d.Automatic), true
	}
	return "", false
}

func readingField(r mqtmodels.Reading, name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case interfaces.FieldDeviceID:
		return r.DeviceID, true
	case "dosificador_activado":
		return strconv.FormatBool(r.DosingActivated), true
	case "timestamp":
		return r.Timestamp, true
	}
	return "", false
}

func commandField(c mqtmodels.Command, name string) (string, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "dispositivo":
		return c.Device, true
	case "accion":
		return c.Action, true
	case "fecha":
		return c.Date, true
	case "estado":
		return c.Status, true
	case "usuario":
		return c.User, true
	}
	return "", false
}

// applyQuery filters, sorts and limits records in memory.
// Filters naming unknown fields are ignored.
func applyQuery[T any](records []T, q interfaces.ListQuery, field func(T, string) (string, bool)) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		keep := true
		for name, want := range q.Filters {
			if got, ok := field(rec, name); ok && got != want {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}

	if q.SortBy != "" {
		if _, known := field(*new(T), q.SortBy); known {
			sort.SliceStable(out, func(i, j int) bool {
				a, _ := field(out[i], q.SortBy)
				b, _ := field(out[j], q.SortBy)
				c := interfaces.CompareIDs(a, b)
				if q.Descending() {
					return c > 0
				}
				return c < 0
			})
		}
	} else if q.Descending() {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
