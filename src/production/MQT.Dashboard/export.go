package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

const historySheet = "Registros"

// HistoryExporter writes a device's reading history as an Excel workbook
type HistoryExporter struct {
	devices  interfaces.DeviceRepository
	readings interfaces.ReadingRepository
}

func NewHistoryExporter(devices interfaces.DeviceRepository, readings interfaces.ReadingRepository) *HistoryExporter {
	return &HistoryExporter{devices: devices, readings: readings}
}

// WriteXLSX fetches the full ascending history of deviceID and writes it to w
func (e *HistoryExporter) WriteXLSX(ctx context.Context, deviceID string, w io.Writer) error {
	device, err := e.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("load device %s: %w", deviceID, err)
	}
	history, err := e.readings.ListReadings(ctx, interfaces.ListQuery{
		SortBy: "timestamp",
		Order:  interfaces.OrderAsc,
	}.ForDevice(deviceID))
	if err != nil {
		return fmt.Errorf("load history for %s: %w", deviceID, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}

	_ = f.SetCellValue(historySheet, "A1", "Dispositivo")
	_ = f.SetCellValue(historySheet, "B1", device.Name)
	_ = f.SetCellValue(historySheet, "A2", "Ubicación")
	_ = f.SetCellValue(historySheet, "B2", device.Location)
	_ = f.SetCellValue(historySheet, "A3", "pH objetivo")
	_ = f.SetCellValue(historySheet, "B3", FormatPH(device.TargetPH))

	_ = f.SetCellValue(historySheet, "A5", "Fecha")
	_ = f.SetCellValue(historySheet, "B5", "pH")
	_ = f.SetCellValue(historySheet, "C5", "Estado")
	_ = f.SetCellValue(historySheet, "D5", "Dosificador")
	row := 6
	for _, r := range history {
		_ = f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), formatDateTime(r))
		if r.PH != nil {
			_ = f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), *r.PH)
		}
		_ = f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), ClassifyPH(r.PH).Label)
		_ = f.SetCellValue(historySheet, fmt.Sprintf("D%d", row), yesNo(r.DosingActivated))
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
