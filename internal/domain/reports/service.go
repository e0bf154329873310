package reports

import (
	"context"
	"time"

	"attendease/internal/domain/attendance"
)

// AttendanceSource is the slice of the attendance service the report
// builders need.
type AttendanceSource interface {
	Report(ctx context.Context, from, to time.Time) (attendance.Result, error)
	Config() attendance.Config
}

type DirectorySource interface {
	EngineEmployees(ctx context.Context) ([]attendance.Employee, error)
	FindEngineEmployee(ctx context.Context, employeeID string) (attendance.Employee, bool, error)
}

type Service struct {
	Attendance AttendanceSource
	Directory  DirectorySource
}

func NewService(att AttendanceSource, dir DirectorySource) *Service {
	return &Service{Attendance: att, Directory: dir}
}

// Dashboard derives the month-to-date rollup and today's headline counts
// in one pass over the scan log.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Summary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	result, err := s.Attendance.Report(ctx, monthStart, now)
	if err != nil {
		return Summary{}, err
	}
	employees, err := s.Directory.EngineEmployees(ctx)
	if err != nil {
		return Summary{}, err
	}
	return BuildSummary(employees, result, now.Format("2006-01-02")), nil
}

// BuildSummary assembles the dashboard from a derived result. Pure so the
// counting rules are testable without a database.
func BuildSummary(employees []attendance.Employee, result attendance.Result, today string) Summary {
	summary := Summary{
		TotalEmployees:  len(employees),
		DepartmentStats: result.Stats,
		Warnings:        result.Warnings,
	}
	for _, employee := range employees {
		if employee.Active {
			summary.ActiveEmployees++
		}
	}

	var workedTotal time.Duration
	var workedCount int
	for _, record := range result.Records {
		if record.WorkingHours != nil {
			workedTotal += *record.WorkingHours
			workedCount++
		}
		if record.Date != today {
			continue
		}
		summary.PresentToday++
		if record.IsLate {
			summary.LateToday++
		}
		if record.CheckOutTime != nil {
			summary.CheckedOutToday++
		}
	}
	if workedCount > 0 {
		summary.AverageWorkingHours = workedTotal.Hours() / float64(workedCount)
	}
	return summary
}
