package attendance

import (
	"encoding/csv"
	"io"
	"strings"
	"time"
)

// CSVHeader is the column layout the downstream export collaborators expect.
// Every record field maps onto it losslessly.
var CSVHeader = []string{
	"employee_id",
	"attendance_date",
	"check_in_time",
	"check_out_time",
	"status",
	"location",
	"notes",
}

// WriteCSV serializes records in the fixed export layout. Times are written
// as RFC 3339 so the file re-parses without losing the recorded offset.
func WriteCSV(w io.Writer, records []AttendanceRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(csvRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRow(record AttendanceRecord) []string {
	return []string{
		record.EmployeeID,
		record.Date,
		formatInstant(record.CheckInTime),
		formatInstant(record.CheckOutTime),
		record.Status,
		record.Location,
		recordNotes(record),
	}
}

func recordNotes(record AttendanceRecord) string {
	return strings.Join(record.DataQualityFlags, "; ")
}

func formatInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
