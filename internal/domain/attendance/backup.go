package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BackupVersion tags the export envelope so a restore can refuse payloads it
// does not understand.
const BackupVersion = "1.0"

// Backup is the JSON envelope the backup/restore surfaces exchange. Records
// serialized here are memoized views; re-ingesting them must reproduce an
// equivalent record set.
type Backup struct {
	Employees         []Employee         `json:"employees"`
	AttendanceRecords []AttendanceRecord `json:"attendanceRecords"`
	Timestamp         time.Time          `json:"timestamp"`
	Version           string             `json:"version"`
}

var ErrUnsupportedBackupVersion = errors.New("unsupported backup version")

func ExportBackup(employees []Employee, records []AttendanceRecord, now time.Time) ([]byte, error) {
	envelope := Backup{
		Employees:         employees,
		AttendanceRecords: records,
		Timestamp:         now,
		Version:           BackupVersion,
	}
	return json.MarshalIndent(envelope, "", "  ")
}

// ImportBackup parses and validates a backup envelope. Shape problems are
// errors here, at the boundary, so nothing downstream has to re-check.
func ImportBackup(data []byte) (Backup, error) {
	var envelope Backup
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Backup{}, fmt.Errorf("backup parse failed: %w", err)
	}
	if envelope.Version != BackupVersion {
		return Backup{}, fmt.Errorf("%w: %q", ErrUnsupportedBackupVersion, envelope.Version)
	}
	for i, emp := range envelope.Employees {
		if emp.EmployeeID == "" {
			return Backup{}, fmt.Errorf("backup employee %d has no employee id", i)
		}
	}
	for i, record := range envelope.AttendanceRecords {
		if record.EmployeeID == "" || record.Date == "" {
			return Backup{}, fmt.Errorf("backup record %d is missing employee id or date", i)
		}
		if _, err := time.Parse("2006-01-02", record.Date); err != nil {
			return Backup{}, fmt.Errorf("backup record %d has invalid date %q", i, record.Date)
		}
	}
	return envelope, nil
}
