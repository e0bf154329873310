package attendance

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	scans   []ScanEvent
	records map[string]AttendanceRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]AttendanceRecord{}}
}

func (f *fakeStore) InsertScan(_ context.Context, employeeID string, recordedAt time.Time, location string, _ ScanType) (string, error) {
	f.scans = append(f.scans, ScanEvent{
		EmployeeID: employeeID,
		Timestamp:  recordedAt.Format(time.RFC3339Nano),
		Location:   location,
	})
	return "scan-1", nil
}

func (f *fakeStore) CountScansForDay(_ context.Context, employeeID string, dayStart, dayEnd time.Time) (int, error) {
	count := 0
	for _, scan := range f.scans {
		if scan.EmployeeID != employeeID {
			continue
		}
		at, err := ParseTimestamp(scan.Timestamp)
		if err != nil {
			continue
		}
		if !at.Before(dayStart) && at.Before(dayEnd) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListScansForEmployeeDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]ScanEvent, error) {
	var out []ScanEvent
	for _, scan := range f.scans {
		if scan.EmployeeID != employeeID {
			continue
		}
		at, err := ParseTimestamp(scan.Timestamp)
		if err != nil {
			continue
		}
		if !at.Before(dayStart) && at.Before(dayEnd) {
			out = append(out, scan)
		}
	}
	return out, nil
}

func (f *fakeStore) ListScansBetween(_ context.Context, _, _ time.Time) ([]ScanEvent, error) {
	return f.scans, nil
}

func (f *fakeStore) RecentScans(_ context.Context, limit int) ([]ScanEvent, error) {
	if len(f.scans) <= limit {
		return f.scans, nil
	}
	return f.scans[len(f.scans)-limit:], nil
}

func (f *fakeStore) UpsertRecord(_ context.Context, record AttendanceRecord) error {
	f.records[record.EmployeeID+"|"+record.Date] = record
	return nil
}

func (f *fakeStore) UpsertRecords(ctx context.Context, records []AttendanceRecord) error {
	for _, record := range records {
		if err := f.UpsertRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) ListRecordsBetween(_ context.Context, fromDate, toDate string) ([]AttendanceRecord, error) {
	var out []AttendanceRecord
	for _, record := range f.records {
		if record.Date >= fromDate && record.Date <= toDate {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllRecords(_ context.Context) ([]AttendanceRecord, error) {
	var out []AttendanceRecord
	for _, record := range f.records {
		out = append(out, record)
	}
	return out, nil
}

type fakeDirectory struct {
	employees map[string]Employee
}

func newFakeDirectory(employees ...Employee) *fakeDirectory {
	dir := &fakeDirectory{employees: map[string]Employee{}}
	for _, employee := range employees {
		dir.employees[employee.EmployeeID] = employee
	}
	return dir
}

func (f *fakeDirectory) EngineEmployees(_ context.Context) ([]Employee, error) {
	var out []Employee
	for _, employee := range f.employees {
		out = append(out, employee)
	}
	return out, nil
}

func (f *fakeDirectory) FindEngineEmployee(_ context.Context, employeeID string) (Employee, bool, error) {
	employee, ok := f.employees[employeeID]
	return employee, ok, nil
}

func (f *fakeDirectory) UpsertEngineEmployee(_ context.Context, employee Employee) error {
	f.employees[employee.EmployeeID] = employee
	return nil
}

type fakeNotifier struct {
	lateCalls int
	lastID    string
}

func (f *fakeNotifier) LateArrival(_ context.Context, employee Employee, _ time.Time, _ int) {
	f.lateCalls++
	f.lastID = employee.EmployeeID
}

func newTestService(employees ...Employee) (*Service, *fakeStore, *fakeNotifier) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	service := NewService(store, newFakeDirectory(employees...), testConfig)
	service.SetNotifier(notifier)
	return service, store, notifier
}

func TestRecordScanClassifiesFirstAsCheckIn(t *testing.T) {
	service, store, _ := newTestService(activeEmployee("EMP001", "IT"))
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	result, err := service.RecordScan(context.Background(), "EMP001", "", now)
	if err != nil {
		t.Fatalf("record scan failed: %v", err)
	}
	if result.Type != ScanCheckIn {
		t.Fatalf("expected check-in, got %s", result.Type)
	}
	if result.IsLate {
		t.Fatal("08:00 check-in must not be late")
	}
	if result.Location != DefaultLocation {
		t.Fatalf("expected default location, got %s", result.Location)
	}

	record, ok := store.records["EMP001|2025-03-10"]
	if !ok {
		t.Fatal("expected memoized record to be refreshed")
	}
	if record.CheckInTime == nil || record.CheckOutTime != nil {
		t.Fatalf("unexpected record state: %+v", record)
	}
}

func TestRecordScanSecondIsCheckOutAndComputesHours(t *testing.T) {
	service, store, _ := newTestService(activeEmployee("EMP001", "IT"))
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := service.RecordScan(context.Background(), "EMP001", "", day); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	result, err := service.RecordScan(context.Background(), "EMP001", "", day.Add(8*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if result.Type != ScanCheckOut {
		t.Fatalf("expected check-out, got %s", result.Type)
	}
	if result.IsLate {
		t.Fatal("check-out must never be evaluated for lateness")
	}

	record := store.records["EMP001|2025-03-10"]
	if record.WorkingHours == nil || *record.WorkingHours != 8*time.Hour+30*time.Minute {
		t.Fatalf("unexpected working hours: %v", record.WorkingHours)
	}
}

func TestRecordScanLateCheckInNotifies(t *testing.T) {
	service, _, notifier := newTestService(activeEmployee("EMP001", "IT"))
	now := time.Date(2025, 3, 10, 9, 10, 0, 0, time.UTC)

	result, err := service.RecordScan(context.Background(), "EMP001", "", now)
	if err != nil {
		t.Fatalf("record scan failed: %v", err)
	}
	if !result.IsLate || result.LateDurationMinutes != 40 {
		t.Fatalf("expected 40 late minutes, got late=%v minutes=%d", result.IsLate, result.LateDurationMinutes)
	}
	if notifier.lateCalls != 1 || notifier.lastID != "EMP001" {
		t.Fatalf("expected one late notification for EMP001, got %d for %s", notifier.lateCalls, notifier.lastID)
	}
}

func TestRecordScanThirdScanWarnsAndKeepsRecord(t *testing.T) {
	service, store, _ := newTestService(activeEmployee("EMP001", "IT"))
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if _, err := service.RecordScan(context.Background(), "EMP001", "", day.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("scan %d failed: %v", i+1, err)
		}
	}
	result, err := service.RecordScan(context.Background(), "EMP001", "", day.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("third scan failed: %v", err)
	}
	if result.Warning != WarnAmbiguousThirdScan {
		t.Fatalf("expected third-scan warning, got %q", result.Warning)
	}

	record := store.records["EMP001|2025-03-10"]
	if record.CheckOutTime == nil || record.CheckOutTime.Hour() != 10 {
		t.Fatalf("third scan overwrote check-out: %v", record.CheckOutTime)
	}
}

func TestRecordScanRejectsUnknownAndInactive(t *testing.T) {
	service, _, _ := newTestService(Employee{EmployeeID: "EMP002", Name: "Former", Active: false})
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := service.RecordScan(context.Background(), "EMP999", "", now); !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("expected unknown employee error, got %v", err)
	}
	if _, err := service.RecordScan(context.Background(), "EMP002", "", now); !errors.Is(err, ErrInactiveEmployee) {
		t.Fatalf("expected inactive employee error, got %v", err)
	}
}

func TestServiceBackupRoundTrip(t *testing.T) {
	service, store, _ := newTestService(activeEmployee("EMP001", "IT"))
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := service.RecordScan(context.Background(), "EMP001", "", day); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	data, err := service.ExportBackup(context.Background(), day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Restore into a fresh service: the record set must carry over as-is.
	restoreService, restoreStore, _ := newTestService()
	employees, records, err := restoreService.RestoreBackup(context.Background(), data)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if employees != 1 || records != 1 {
		t.Fatalf("expected 1 employee and 1 record restored, got %d / %d", employees, records)
	}
	restored := restoreStore.records["EMP001|2025-03-10"]
	original := store.records["EMP001|2025-03-10"]
	if restored.Status != original.Status || restored.IsLate != original.IsLate {
		t.Fatalf("restored record differs: %+v vs %+v", restored, original)
	}
	if restored.CheckInTime == nil || !restored.CheckInTime.Equal(*original.CheckInTime) {
		t.Fatalf("restored check-in differs: %v vs %v", restored.CheckInTime, original.CheckInTime)
	}
}

func TestRefreshRecordsRebuildsMemoizedRows(t *testing.T) {
	service, store, _ := newTestService(activeEmployee("EMP001", "IT"))
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := service.RecordScan(context.Background(), "EMP001", "", day); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	// Simulate a drifted cache.
	store.records = map[string]AttendanceRecord{}

	count, err := service.RefreshRecords(context.Background(), day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record refreshed, got %d", count)
	}
	if _, ok := store.records["EMP001|2025-03-10"]; !ok {
		t.Fatal("expected memoized record to be rebuilt")
	}
}
