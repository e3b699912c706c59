package dashboard

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

const (
	defaultCurrentPH = 0
	defaultTargetPH  = 7
)

// DeviceForm is the raw registry form as the operator typed it
type DeviceForm struct {
	ID        string `form:"id" json:"id"`
	Name      string `form:"nombre" json:"nombre"`
	Type      string `form:"tipo" json:"tipo"`
	Location  string `form:"ubicacion" json:"ubicacion"`
	IP        string `form:"ip" json:"ip"`
	State     string `form:"estado" json:"estado"`
	CurrentPH string `form:"ph_actual" json:"ph_actual"`
	TargetPH  string `form:"ph_objetivo" json:"ph_objetivo"`
	Automatic string `form:"automatico" json:"automatico"`
}

// ParseDeviceForm coerces the form into a Device. Unparsable current pH becomes 0,
// unparsable or zero target pH becomes 7. No other validation is applied.
func ParseDeviceForm(f DeviceForm) mqtmodels.Device {
	current, ok := parseFloatPrefix(f.CurrentPH)
	if !ok {
		current = defaultCurrentPH
	}
	target, ok := parseFloatPrefix(f.TargetPH)
	if !ok || target == 0 {
		target = defaultTargetPH
	}

	state := mqtmodels.DeviceState(strings.TrimSpace(f.State))
	if !state.Valid() {
		state = mqtmodels.StateInactive
	}

	return mqtmodels.Device{
		ID:        strings.TrimSpace(f.ID),
		Name:      f.Name,
		Type:      f.Type,
		Location:  f.Location,
		IP:        strings.TrimSpace(f.IP),
		State:     state,
		CurrentPH: mqtmodels.Float(current),
		TargetPH:  mqtmodels.Float(target),
		Automatic: strings.TrimSpace(f.Automatic) == "true",
	}
}

// FormFromDevice populates the edit form. Missing values become "" and the state
// falls back to inactivo.
func FormFromDevice(d mqtmodels.Device) DeviceForm {
	form := DeviceForm{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		Location:  d.Location,
		IP:        d.IP,
		State:     string(d.State),
		Automatic: strconv.FormatBool(d.Automatic),
	}
	if form.State == "" {
		form.State = string(mqtmodels.StateInactive)
	}
	if d.CurrentPH != nil {
		form.CurrentPH = strconv.FormatFloat(*d.CurrentPH, 'f', -1, 64)
	}
	if d.TargetPH != nil {
		form.TargetPH = strconv.FormatFloat(*d.TargetPH, 'f', -1, 64)
	}
	return form
}

// parseFloatPrefix reads the longest leading decimal number of s, ignoring
// leading whitespace and any trailing garbage ("7.2 pH" reads as 7.2).
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
