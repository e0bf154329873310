package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"attendease/internal/domain/attendance"
)

func pt(t time.Time) *time.Time { return &t }

func pd(d time.Duration) *time.Duration { return &d }

func TestBuildSummaryCountsToday(t *testing.T) {
	employees := []attendance.Employee{
		{EmployeeID: "EMP001", Active: true},
		{EmployeeID: "EMP002", Active: true},
		{EmployeeID: "EMP003", Active: false},
	}
	result := attendance.Result{
		Records: []attendance.AttendanceRecord{
			{
				EmployeeID:   "EMP001",
				Date:         "2024-03-04",
				CheckInTime:  pt(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)),
				CheckOutTime: pt(time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)),
				WorkingHours: pd(9 * time.Hour),
			},
			{
				EmployeeID:  "EMP002",
				Date:        "2024-03-04",
				CheckInTime: pt(time.Date(2024, 3, 4, 9, 10, 0, 0, time.UTC)),
				IsLate:      true,
			},
			{
				EmployeeID:   "EMP001",
				Date:         "2024-03-01",
				WorkingHours: pd(7 * time.Hour),
			},
		},
	}

	summary := BuildSummary(employees, result, "2024-03-04")

	if summary.TotalEmployees != 3 || summary.ActiveEmployees != 2 {
		t.Fatalf("unexpected employee counts: %+v", summary)
	}
	if summary.PresentToday != 2 || summary.LateToday != 1 || summary.CheckedOutToday != 1 {
		t.Fatalf("unexpected today counts: %+v", summary)
	}
	if summary.AverageWorkingHours != 8 {
		t.Fatalf("expected average 8h, got %v", summary.AverageWorkingHours)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := BuildSummary(nil, attendance.Result{}, "2024-03-04")
	if summary.PresentToday != 0 || summary.AverageWorkingHours != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestWriteXLSXLayout(t *testing.T) {
	records := []attendance.AttendanceRecord{
		{
			EmployeeID:  "EMP001",
			Date:        "2024-03-04",
			CheckInTime: pt(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)),
			Status:      attendance.StatusPresent,
			Location:    "Office Main",
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[1][0] != "EMP001" || rows[1][1] != "2024-03-04" || rows[1][2] != "08:00" {
		t.Fatalf("unexpected data row: %v", rows[1])
	}
}
