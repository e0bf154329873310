package reports

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendease/internal/domain/attendance"
)

var xlsxHeader = []any{
	"Employee ID", "Date", "Check In", "Check Out",
	"Status", "Late (min)", "Hours", "Location", "Notes",
}

// WriteXLSX renders records to a single-sheet workbook.
func WriteXLSX(w io.Writer, records []attendance.AttendanceRecord) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return err
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var hours float64
		if record.WorkingHours != nil {
			hours = record.WorkingHours.Hours()
		}
		row := []any{
			record.EmployeeID,
			record.Date,
			formatClock(record.CheckInTime),
			formatClock(record.CheckOutTime),
			record.Status,
			record.LateDurationMinutes,
			hours,
			record.Location,
			strings.Join(record.DataQualityFlags, "; "),
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return file.Write(w)
}
