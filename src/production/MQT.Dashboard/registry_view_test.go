package dashboard

import (
	"context"
	"errors"
	"testing"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

func TestRegistryCreateThenFetch(t *testing.T) {
	ctx := context.Background()
	store := implementation.NewMemoryStore()
	pub := &recordingPublisher{}
	v := NewRegistryView(store, pub, logger.Nop())

	v.Start(ctx)
	if got := v.Table(); got.Message != "No hay dispositivos" || len(got.Devices) != 0 {
		t.Fatalf("empty table = %+v", got)
	}

	saved, err := v.Save(ctx, DeviceForm{Name: "Tanque", Type: "sensor", Location: "sala", State: "activo", CurrentPH: "", TargetPH: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := store.GetDevice(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *stored.CurrentPH != 0 || *stored.TargetPH != 7 || stored.Name != "Tanque" {
		t.Errorf("stored = %+v", stored)
	}
	if got := v.Table(); len(got.Devices) != 1 || got.Message != "" {
		t.Errorf("table after save = %+v", got)
	}

	form, err := v.Edit(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if form.ID != saved.ID || form.TargetPH != "7" || form.State != "activo" {
		t.Errorf("form = %+v", form)
	}
	form.Name = "Tanque B"
	if _, err := v.Save(ctx, form); err != nil {
		t.Fatal(err)
	}
	all, _ := store.ListDevices(ctx, interfaces.ListQuery{})
	if len(all) != 1 || all[0].Name != "Tanque B" {
		t.Errorf("devices after edit = %+v", all)
	}
}

func TestRegistryDeleteNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	store := implementation.NewMemoryStore()
	d := addDevice(t, store, "A", 7.0, 7.0)
	v := NewRegistryView(store, nil, logger.Nop())

	if err := v.Delete(ctx, d.ID, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed delete = %v", err)
	}
	if _, err := store.GetDevice(ctx, d.ID); err != nil {
		t.Fatal("device deleted without confirmation")
	}
	if err := v.Delete(ctx, d.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDevice(ctx, d.ID); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("GetDevice after delete = %v", err)
	}
	if got := v.Table(); got.Message != "No hay dispositivos" {
		t.Errorf("table = %+v", got)
	}
}

func TestRegistryErrors(t *testing.T) {
	ctx := context.Background()
	v := NewRegistryView(failingDevices{}, nil, logger.Nop())

	if got := v.Refresh(ctx); got.Error != "Error: boom" {
		t.Errorf("table error = %q", got.Error)
	}

	form := DeviceForm{Name: "Tanque"}
	_, err := v.Save(ctx, form)
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("Save error = %v", err)
	}
	if saveErr.Error() != "Error al guardar: boom" || saveErr.Form.Name != "Tanque" {
		t.Errorf("save error = %q, form %+v", saveErr.Error(), saveErr.Form)
	}
	if !errors.Is(err, errBoom) {
		t.Error("SaveError should unwrap to the store error")
	}
}
