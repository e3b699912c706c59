package dashboard

import (
	"testing"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

func TestParseDeviceFormDefaults(t *testing.T) {
	d := ParseDeviceForm(DeviceForm{Name: "Tanque A", State: "encendido"})
	if d.CurrentPH == nil || *d.CurrentPH != 0 {
		t.Errorf("current pH = %v, want 0", d.CurrentPH)
	}
	if d.TargetPH == nil || *d.TargetPH != 7 {
		t.Errorf("target pH = %v, want 7", d.TargetPH)
	}
	if d.State != mqtmodels.StateInactive {
		t.Errorf("state = %q, want inactivo", d.State)
	}
	if d.Automatic {
		t.Error("automatic should default to false")
	}
}

func TestParseDeviceFormCoercion(t *testing.T) {
	d := ParseDeviceForm(DeviceForm{
		CurrentPH: " 7.2abc",
		TargetPH:  "0",
		State:     "activo",
		Automatic: "true",
		IP:        " 10.0.0.5 ",
	})
	if *d.CurrentPH != 7.2 {
		t.Errorf("current pH = %v, want 7.2", *d.CurrentPH)
	}
	if *d.TargetPH != 7 {
		t.Errorf("zero target should fall back to 7, got %v", *d.TargetPH)
	}
	if d.State != mqtmodels.StateActive || !d.Automatic || d.IP != "10.0.0.5" {
		t.Errorf("unexpected device %+v", d)
	}
}

func TestParseFloatPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"7", 7, true},
		{"-1.5x", -1.5, true},
		{".5", 0.5, true},
		{"1e2", 100, true},
		{"1e", 1, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFloatPrefix(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseFloatPrefix(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormFromDevice(t *testing.T) {
	form := FormFromDevice(mqtmodels.Device{ID: "3", Name: "A", CurrentPH: mqtmodels.Float(6.8)})
	if form.State != "inactivo" || form.TargetPH != "" || form.CurrentPH != "6.8" || form.Automatic != "false" {
		t.Errorf("unexpected form %+v", form)
	}
}
