package dashboard

import (
	"fmt"
	"math"
	"strconv"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

// pH thresholds
const (
	RangeThreshold    = 0.3
	AcidThreshold     = 6.5
	MildAcidThreshold = 6.8
	AlkalineThreshold = 8.5
)

// Level is the visual severity attached to alerts and labels
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelStrong  Level = "strong"
	LevelMuted   Level = "muted"
)

// Alert messages
const (
	msgInRange      = "pH dentro del rango."
	msgMonitoring   = "Sistema monitoreando dispositivos..."
	msgAllNominal   = "Todos los dispositivos dentro del rango de pH óptimo."
	msgAlertsFailed = "Error al obtener alertas."
)

// RangeAlert is the inline alert of the control view
type RangeAlert struct {
	Level       Level  `json:"level"`
	Message     string `json:"message"`
	OfferDosing bool   `json:"offer_dosing"`
}

// EvaluateRange compares current and target pH. Nil when either is missing.
func EvaluateRange(current, target *float64) *RangeAlert {
	if current == nil || target == nil {
		return nil
	}
	if outOfRange(*current, *target) {
		return &RangeAlert{
			Level:       LevelDanger,
			Message:     fmt.Sprintf("pH fuera de rango (actual %s / objetivo %s). ¿Activar dosificador?", FormatPH(current), FormatPH(target)),
			OfferDosing: true,
		}
	}
	return &RangeAlert{Level: LevelSuccess, Message: msgInRange}
}

func outOfRange(current, target float64) bool {
	return math.Abs(current-target) >= RangeThreshold
}

// PHStatus is the derived label shown next to a reading
type PHStatus struct {
	Label string `json:"label"`
	Level Level  `json:"level"`
}

// ClassifyPH maps a pH value to its status label
func ClassifyPH(ph *float64) PHStatus {
	switch {
	case ph == nil:
		return PHStatus{Label: "sin dato", Level: LevelMuted}
	case *ph < AcidThreshold:
		return PHStatus{Label: "ÁCIDO", Level: LevelStrong}
	case *ph < MildAcidThreshold:
		return PHStatus{Label: "ligeramente ácido", Level: LevelWarning}
	case *ph > AlkalineThreshold:
		return PHStatus{Label: "alcalino", Level: LevelWarning}
	default:
		return PHStatus{Label: "normal", Level: LevelSuccess}
	}
}

// ScanKind is the outcome category of a device scan
type ScanKind string

const (
	ScanCritical ScanKind = "critical"
	ScanWarning  ScanKind = "warning"
	ScanNominal  ScanKind = "nominal"
)

// ScanResult is the single alert picked from a scan over all devices
type ScanResult struct {
	Kind   ScanKind
	Device *mqtmodels.Device
}

// ScanDevices picks at most one device to alert on. A critical acid device beats
// any warning; among critical devices the lowest pH wins; among warnings the first
// one in list order wins. Devices missing either pH value are skipped.
func ScanDevices(devices []mqtmodels.Device) ScanResult {
	var critical, warning *mqtmodels.Device
	for i := range devices {
		d := &devices[i]
		if d.CurrentPH == nil || d.TargetPH == nil {
			continue
		}
		if *d.CurrentPH < AcidThreshold {
			if critical == nil || *d.CurrentPH < *critical.CurrentPH {
				critical = d
			}
			continue
		}
		if warning == nil && outOfRange(*d.CurrentPH, *d.TargetPH) {
			warning = d
		}
	}
	switch {
	case critical != nil:
		return ScanResult{Kind: ScanCritical, Device: critical}
	case warning != nil:
		return ScanResult{Kind: ScanWarning, Device: warning}
	}
	return ScanResult{Kind: ScanNominal}
}

// FormatPH renders a pH with two decimals, or "-" when absent
func FormatPH(ph *float64) string {
	if ph == nil {
		return "-"
	}
	return strconv.FormatFloat(*ph, 'f', 2, 64)
}
