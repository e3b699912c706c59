package dashboard

import mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"

const (
	clockLayout    = "15:04:05"
	dateTimeLayout = "02/01/2006 15:04:05"
)

// ReadingRow is a reading as shown in the control and monitor tables
type ReadingRow struct {
	ID        string   `json:"id"`
	PH        *float64 `json:"ph"`
	PHText    string   `json:"ph_text"`
	Dosing    string   `json:"dosing"`
	Timestamp string   `json:"timestamp"`
	Time      string   `json:"time"`
}

func newReadingRow(r mqtmodels.Reading) ReadingRow {
	return ReadingRow{
		ID:        r.ID,
		PH:        r.PH,
		PHText:    FormatPH(r.PH),
		Dosing:    yesNo(r.DosingActivated),
		Timestamp: r.Timestamp,
		Time:      formatDateTime(r),
	}
}

func readingRows(readings []mqtmodels.Reading) []ReadingRow {
	rows := make([]ReadingRow, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, newReadingRow(r))
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "Si"
	}
	return "No"
}

// formatDateTime renders the reading time in local time; an unparsable timestamp is returned as is
func formatDateTime(r mqtmodels.Reading) string {
	return formatReadingTime(r, dateTimeLayout)
}

func formatClock(r mqtmodels.Reading) string {
	return formatReadingTime(r, clockLayout)
}

func formatReadingTime(r mqtmodels.Reading, layout string) string {
	t := r.Time()
	if t.IsZero() {
		return r.Timestamp
	}
	return t.Local().Format(layout)
}
