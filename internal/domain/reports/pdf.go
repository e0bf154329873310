package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"attendease/internal/domain/attendance"
	"attendease/internal/domain/directory"
)

// EmployeePDF streams a per-employee attendance report for the window.
func (s *Service) EmployeePDF(ctx context.Context, w io.Writer, employeeID string, from, to time.Time) error {
	employee, found, err := s.Directory.FindEngineEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if !found {
		return directory.ErrNotFound
	}

	result, err := s.Attendance.Report(ctx, from, to)
	if err != nil {
		return err
	}

	var records []attendance.AttendanceRecord
	var lateDays int
	var worked time.Duration
	for _, record := range result.Records {
		if record.EmployeeID != employeeID {
			continue
		}
		records = append(records, record)
		if record.IsLate {
			lateDays++
		}
		if record.WorkingHours != nil {
			worked += *record.WorkingHours
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Attendance Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", employee.Name, employee.EmployeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Department: %s", employee.Department))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Days present: %d, late: %d, hours worked: %.1f", len(records), lateDays, worked.Hours()))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{26, 26, 26, 22, 20, 40}
	headers := []string{"Date", "Check In", "Check Out", "Status", "Late (min)", "Location"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, record := range records {
		cells := []string{
			record.Date,
			formatClock(record.CheckInTime),
			formatClock(record.CheckOutTime),
			record.Status,
			fmt.Sprintf("%d", record.LateDurationMinutes),
			record.Location,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func formatClock(at *time.Time) string {
	if at == nil {
		return "-"
	}
	return at.Format("15:04")
}
