package dashboard

import (
	"testing"
	"time"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

func TestReadingTimeFormatting(t *testing.T) {
	r := mqtmodels.Reading{Timestamp: "2024-05-01T13:30:05.000+02:00"}
	want := time.Date(2024, 5, 1, 11, 30, 5, 0, time.UTC).Local()
	if got := formatClock(r); got != want.Format(clockLayout) {
		t.Errorf("formatClock = %q, want %q", got, want.Format(clockLayout))
	}
	if got := formatDateTime(r); got != want.Format(dateTimeLayout) {
		t.Errorf("formatDateTime = %q", got)
	}

	bad := mqtmodels.Reading{Timestamp: "ayer"}
	if got := formatDateTime(bad); got != "ayer" {
		t.Errorf("unparsable timestamp rendered as %q", got)
	}
	if row := newReadingRow(bad); row.Time != "ayer" || row.Timestamp != "ayer" {
		t.Errorf("row = %+v", row)
	}
}
