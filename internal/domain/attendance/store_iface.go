package attendance

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface the service depends on. The scan log
// is append-only; attendance_records rows are memoized engine output and may
// be rewritten at any time.
type StoreAPI interface {
	InsertScan(ctx context.Context, employeeID string, recordedAt time.Time, location string, scanType ScanType) (string, error)
	CountScansForDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (int, error)
	ListScansForEmployeeDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]ScanEvent, error)
	ListScansBetween(ctx context.Context, from, to time.Time) ([]ScanEvent, error)
	RecentScans(ctx context.Context, limit int) ([]ScanEvent, error)
	UpsertRecord(ctx context.Context, record AttendanceRecord) error
	UpsertRecords(ctx context.Context, records []AttendanceRecord) error
	ListRecordsBetween(ctx context.Context, fromDate, toDate string) ([]AttendanceRecord, error)
	ListAllRecords(ctx context.Context) ([]AttendanceRecord, error)
}

// DirectorySource supplies the engine's view of the employee directory.
type DirectorySource interface {
	EngineEmployees(ctx context.Context) ([]Employee, error)
	FindEngineEmployee(ctx context.Context, employeeID string) (Employee, bool, error)
	UpsertEngineEmployee(ctx context.Context, employee Employee) error
}

// Notifier receives late-arrival events. Implementations must not block the
// scan path on delivery failures.
type Notifier interface {
	LateArrival(ctx context.Context, employee Employee, at time.Time, minutes int)
}
