package dashboard

import (
	"testing"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

func TestEvaluateRange(t *testing.T) {
	tests := []struct {
		name    string
		current *float64
		target  *float64
		want    Level
		dosing  bool
	}{
		{"exactly at threshold", mqtmodels.Float(0.3), mqtmodels.Float(0), LevelDanger, true},
		{"just above threshold", mqtmodels.Float(8.0), mqtmodels.Float(8.3), LevelDanger, true},
		{"below threshold", mqtmodels.Float(7.0), mqtmodels.Float(7.29), LevelSuccess, false},
		{"a hair below threshold", mqtmodels.Float(7.0), mqtmodels.Float(7.2999999995), LevelSuccess, false},
		// 7.0-6.7 is 0.29999999999999982 in float64
		{"float difference under threshold", mqtmodels.Float(6.7), mqtmodels.Float(7.0), LevelSuccess, false},
		{"below target", mqtmodels.Float(6.6), mqtmodels.Float(7.0), LevelDanger, true},
		{"equal", mqtmodels.Float(7.0), mqtmodels.Float(7.0), LevelSuccess, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRange(tt.current, tt.target)
			if got == nil {
				t.Fatal("expected an alert")
			}
			if got.Level != tt.want || got.OfferDosing != tt.dosing {
				t.Errorf("got %+v, want level %s dosing %v", got, tt.want, tt.dosing)
			}
		})
	}

	if EvaluateRange(nil, mqtmodels.Float(7)) != nil || EvaluateRange(mqtmodels.Float(7), nil) != nil {
		t.Error("missing values must not produce an alert")
	}
}

func TestEvaluateRangeMessage(t *testing.T) {
	got := EvaluateRange(mqtmodels.Float(6.5), mqtmodels.Float(7.2))
	want := "pH fuera de rango (actual 6.50 / objetivo 7.20). ¿Activar dosificador?"
	if got.Message != want {
		t.Errorf("message = %q, want %q", got.Message, want)
	}
	if ok := EvaluateRange(mqtmodels.Float(7.1), mqtmodels.Float(7.2)); ok.Message != "pH dentro del rango." {
		t.Errorf("in-range message = %q", ok.Message)
	}
}

func TestClassifyPH(t *testing.T) {
	tests := []struct {
		ph    *float64
		label string
		level Level
	}{
		{mqtmodels.Float(6.49), "ÁCIDO", LevelStrong},
		{mqtmodels.Float(6.5), "ligeramente ácido", LevelWarning},
		{mqtmodels.Float(6.79), "ligeramente ácido", LevelWarning},
		{mqtmodels.Float(6.8), "normal", LevelSuccess},
		{mqtmodels.Float(8.5), "normal", LevelSuccess},
		{mqtmodels.Float(8.51), "alcalino", LevelWarning},
		{nil, "sin dato", LevelMuted},
	}
	for _, tt := range tests {
		got := ClassifyPH(tt.ph)
		if got.Label != tt.label || got.Level != tt.level {
			t.Errorf("ClassifyPH(%s) = %+v, want %s/%s", FormatPH(tt.ph), got, tt.label, tt.level)
		}
	}
}

func device(id string, current, target *float64) mqtmodels.Device {
	return mqtmodels.Device{ID: id, Name: "dev" + id, CurrentPH: current, TargetPH: target}
}

func TestScanDevicesPriority(t *testing.T) {
	// the acid device wins even though the warning comes first
	res := ScanDevices([]mqtmodels.Device{
		device("B", mqtmodels.Float(6.6), mqtmodels.Float(7.0)),
		device("A", mqtmodels.Float(6.0), mqtmodels.Float(7.0)),
	})
	if res.Kind != ScanCritical || res.Device.ID != "A" {
		t.Fatalf("got %s %+v, want critical A", res.Kind, res.Device)
	}

	res = ScanDevices([]mqtmodels.Device{
		device("1", mqtmodels.Float(6.3), mqtmodels.Float(7.0)),
		device("2", mqtmodels.Float(6.1), mqtmodels.Float(7.0)),
		device("3", mqtmodels.Float(6.4), mqtmodels.Float(7.0)),
	})
	if res.Kind != ScanCritical || res.Device.ID != "2" {
		t.Errorf("lowest acid pH should win, got %+v", res.Device)
	}

	res = ScanDevices([]mqtmodels.Device{
		device("1", mqtmodels.Float(7.0), mqtmodels.Float(7.1)),
		device("2", mqtmodels.Float(8.0), mqtmodels.Float(7.0)),
		device("3", mqtmodels.Float(6.6), mqtmodels.Float(7.0)),
	})
	if res.Kind != ScanWarning || res.Device.ID != "2" {
		t.Errorf("first out-of-range device should win, got %+v", res.Device)
	}

	res = ScanDevices([]mqtmodels.Device{
		device("1", mqtmodels.Float(7.0), mqtmodels.Float(7.2999999995)),
		device("2", mqtmodels.Float(6.7), mqtmodels.Float(7.0)),
	})
	if res.Kind != ScanNominal {
		t.Errorf("differences under 0.3 must not warn, got %s %+v", res.Kind, res.Device)
	}

	res = ScanDevices([]mqtmodels.Device{
		device("1", nil, mqtmodels.Float(7.0)),
		device("2", mqtmodels.Float(5.0), nil),
		device("3", mqtmodels.Float(7.0), mqtmodels.Float(7.0)),
	})
	if res.Kind != ScanNominal || res.Device != nil {
		t.Errorf("devices missing pH values must be skipped, got %s", res.Kind)
	}

	if res := ScanDevices(nil); res.Kind != ScanNominal {
		t.Errorf("empty scan = %s", res.Kind)
	}
}

func TestFormatPH(t *testing.T) {
	if got := FormatPH(nil); got != "-" {
		t.Errorf("FormatPH(nil) = %q", got)
	}
	if got := FormatPH(mqtmodels.Float(7)); got != "7.00" {
		t.Errorf("FormatPH(7) = %q", got)
	}
}
