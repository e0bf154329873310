package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service ties the pure engine to the scan log, the directory, and the
// memoized record table. All derivation goes through Derive; the service
// only moves data to and from it.
type Service struct {
	store     StoreAPI
	directory DirectorySource
	notifier  Notifier
	cfg       Config
}

func NewService(store StoreAPI, directory DirectorySource, cfg Config) *Service {
	return &Service{store: store, directory: directory, cfg: cfg}
}

func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *Service) Config() Config {
	return s.cfg
}

// ScanResult is what the capture surface shows after a scan.
type ScanResult struct {
	EmployeeID          string    `json:"employeeId"`
	EmployeeName        string    `json:"employeeName"`
	Type                ScanType  `json:"type"`
	Time                time.Time `json:"time"`
	IsLate              bool      `json:"isLate"`
	LateDurationMinutes int       `json:"lateDurationMinutes,omitempty"`
	Location            string    `json:"location"`
	Message             string    `json:"message"`
	Warning             string    `json:"warning,omitempty"`
}

// RecordScan appends one scan to the log, classifies it against the
// employee's prior scans today, and refreshes the day's memoized record.
// Unknown and inactive employees are rejected before anything is written.
func (s *Service) RecordScan(ctx context.Context, employeeID, location string, now time.Time) (ScanResult, error) {
	employee, found, err := s.directory.FindEngineEmployee(ctx, employeeID)
	if err != nil {
		return ScanResult{}, fmt.Errorf("directory lookup: %w", err)
	}
	if !found {
		return ScanResult{}, fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeID)
	}
	if !employee.Active {
		return ScanResult{}, fmt.Errorf("%w: %s", ErrInactiveEmployee, employeeID)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	prior, err := s.store.CountScansForDay(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return ScanResult{}, fmt.Errorf("prior scan count: %w", err)
	}

	scanType := Classify(prior)
	resolvedLocation := locationOrDefault(location)
	if _, err := s.store.InsertScan(ctx, employeeID, now, resolvedLocation, scanType); err != nil {
		return ScanResult{}, fmt.Errorf("scan insert: %w", err)
	}

	result := ScanResult{
		EmployeeID:   employeeID,
		EmployeeName: employee.Name,
		Type:         scanType,
		Time:         now,
		Location:     resolvedLocation,
	}

	if scanType == ScanCheckIn {
		late, minutes, err := Lateness(s.cfg, now)
		if err != nil {
			return ScanResult{}, err
		}
		result.IsLate = late
		result.LateDurationMinutes = minutes
		result.Message = "Check-in successful for " + employee.Name
		if late {
			result.Message += " (Late)"
			if s.notifier != nil {
				s.notifier.LateArrival(ctx, employee, now, minutes)
			}
		}
	} else {
		result.Message = "Check-out successful for " + employee.Name
	}

	if prior >= 2 {
		result.Warning = WarnAmbiguousThirdScan
	}

	if err := s.refreshDay(ctx, employee, dayStart, dayEnd); err != nil {
		// The scan itself is committed; a stale memoized row is refreshed by
		// the next scan or the background job.
		slog.Warn("attendance record refresh failed", "employeeId", employeeID, "err", err)
	}

	return result, nil
}

func (s *Service) refreshDay(ctx context.Context, employee Employee, dayStart, dayEnd time.Time) error {
	scans, err := s.store.ListScansForEmployeeDay(ctx, employee.EmployeeID, dayStart, dayEnd)
	if err != nil {
		return err
	}
	derived, err := Derive([]Employee{employee}, scans, s.cfg)
	if err != nil {
		return err
	}
	for _, record := range derived.Records {
		if err := s.store.UpsertRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Report derives records and department stats for a time window straight
// from the scan log. Memoized rows play no part here; the log and the
// directory are the source of truth.
func (s *Service) Report(ctx context.Context, from, to time.Time) (Result, error) {
	employees, err := s.directory.EngineEmployees(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("directory list: %w", err)
	}
	scans, err := s.store.ListScansBetween(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("scan list: %w", err)
	}
	return Derive(employees, scans, s.cfg)
}

// RefreshRecords re-derives the memoized attendance_records rows for a
// window, bringing cached views back in line with the scan log.
func (s *Service) RefreshRecords(ctx context.Context, from, to time.Time) (int, error) {
	result, err := s.Report(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if err := s.store.UpsertRecords(ctx, result.Records); err != nil {
		return 0, err
	}
	return len(result.Records), nil
}

// RecentActivity lists the latest scans for the dashboard feed.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]ScanEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.RecentScans(ctx, limit)
}

// ExportBackup snapshots the directory and the memoized records into the
// versioned JSON envelope.
func (s *Service) ExportBackup(ctx context.Context, now time.Time) ([]byte, error) {
	employees, err := s.directory.EngineEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory list: %w", err)
	}
	records, err := s.store.ListAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("record list: %w", err)
	}
	return ExportBackup(employees, records, now)
}

// RestoreBackup re-ingests an envelope previously produced by ExportBackup.
// Employees and records are upserted; nothing is deleted, and the scan log
// is untouched.
func (s *Service) RestoreBackup(ctx context.Context, data []byte) (employees, records int, err error) {
	envelope, err := ImportBackup(data)
	if err != nil {
		return 0, 0, err
	}
	for _, employee := range envelope.Employees {
		if err := s.directory.UpsertEngineEmployee(ctx, employee); err != nil {
			return 0, 0, fmt.Errorf("employee restore: %w", err)
		}
	}
	if err := s.store.UpsertRecords(ctx, envelope.AttendanceRecords); err != nil {
		return 0, 0, fmt.Errorf("record restore: %w", err)
	}
	return len(envelope.Employees), len(envelope.AttendanceRecords), nil
}
