package attendance

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleRecords(t *testing.T) []AttendanceRecord {
	t.Helper()
	employees := []Employee{
		activeEmployee("EMP001", "IT"),
		activeEmployee("EMP002", "HR"),
	}
	scans := []ScanEvent{
		{EmployeeID: "EMP001", Timestamp: "2025-03-10T08:00:00Z", Location: "Office Main"},
		{EmployeeID: "EMP001", Timestamp: "2025-03-10T17:30:00Z"},
		{EmployeeID: "EMP002", Timestamp: "2025-03-10T08:45:00Z", Location: "Branch East"},
	}
	result, err := Derive(employees, scans, testConfig)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	return result.Records
}

func TestBackupRoundTrip(t *testing.T) {
	employees := []Employee{
		activeEmployee("EMP001", "IT"),
		{EmployeeID: "EMP002", Name: "Employee EMP002", Department: "HR", Active: false},
	}
	records := sampleRecords(t)

	exported, err := ExportBackup(employees, records, time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	restored, err := ImportBackup(exported)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if restored.Version != BackupVersion {
		t.Fatalf("expected version %s, got %s", BackupVersion, restored.Version)
	}
	if !reflect.DeepEqual(restored.Employees, employees) {
		t.Fatalf("employees changed through round-trip:\n%+v\n%+v", restored.Employees, employees)
	}
	if !reflect.DeepEqual(restored.AttendanceRecords, records) {
		t.Fatalf("records changed through round-trip:\n%+v\n%+v", restored.AttendanceRecords, records)
	}
}

func TestImportBackupRejectsUnknownVersion(t *testing.T) {
	payload := []byte(`{"employees":[],"attendanceRecords":[],"timestamp":"2025-03-15T12:00:00Z","version":"2.0"}`)
	if _, err := ImportBackup(payload); err == nil {
		t.Fatal("expected unsupported version error")
	}
}

func TestImportBackupRejectsMalformedRecords(t *testing.T) {
	payload := []byte(`{"employees":[],"attendanceRecords":[{"employeeId":"EMP001","date":"March 10"}],"timestamp":"2025-03-15T12:00:00Z","version":"1.0"}`)
	if _, err := ImportBackup(payload); err == nil {
		t.Fatal("expected invalid date error")
	}
}

func TestWriteCSVLayout(t *testing.T) {
	records := sampleRecords(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("csv write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(CSVHeader, ",") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "EMP001,2025-03-10,2025-03-10T08:00:00Z,2025-03-10T17:30:00Z,present,Office Main") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "EMP002,2025-03-10,2025-03-10T08:45:00Z,,late,Branch East") {
		t.Fatalf("unexpected second row: %s", lines[2])
	}
}
