package attendance

import "time"

type ScanType string

const (
	ScanCheckIn  ScanType = "check-in"
	ScanCheckOut ScanType = "check-out"
)

const (
	StatusPresent = "present"
	StatusLate    = "late"
)

// DefaultLocation is the office label used when a scan carries no location,
// matching the label the capture surfaces prefill.
const DefaultLocation = "Office Main"

// Employee is the directory view the engine reads. The directory domain owns
// the mutable record; the engine never writes it.
type Employee struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Active      bool   `json:"active"`
}

// ScanEvent is one QR read, append-only and immutable once recorded. The
// timestamp stays a string until the engine parses it, so a bad clock string
// degrades to a warning instead of being rejected at the boundary.
type ScanEvent struct {
	EmployeeID string `json:"employeeId"`
	Timestamp  string `json:"timestamp"`
	Location   string `json:"location"`
}

// AttendanceRecord is derived from the scan log and never independently
// authored. Database copies are memoized views of Derive's output.
type AttendanceRecord struct {
	EmployeeID          string         `json:"employeeId"`
	Date                string         `json:"date"`
	CheckInTime         *time.Time     `json:"checkInTime,omitempty"`
	CheckOutTime        *time.Time     `json:"checkOutTime,omitempty"`
	IsLate              bool           `json:"isLate"`
	LateDurationMinutes int            `json:"lateDurationMinutes,omitempty"`
	WorkingHours        *time.Duration `json:"workingHours,omitempty"`
	Location            string         `json:"location,omitempty"`
	Status              string         `json:"status"`
	DataQualityFlags    []string       `json:"dataQualityFlags,omitempty"`
}

type DepartmentStat struct {
	Department      string `json:"department"`
	TotalEmployees  int    `json:"totalEmployees"`
	ActiveEmployees int    `json:"activeEmployees"`
	TotalAttendance int    `json:"totalAttendance"`
	LateRecords     int    `json:"lateRecords"`
	AttendanceRate  int    `json:"attendanceRate"`
	PunctualityRate int    `json:"punctualityRate"`
}

const (
	WarnMalformedInput     = "malformed_input"
	WarnOrphanReference    = "orphan_reference"
	WarnInactiveEmployee   = "inactive_employee"
	WarnNegativeDuration   = "negative_duration"
	WarnAmbiguousThirdScan = "ambiguous_third_scan"
)

// Warning describes a data-quality issue the engine recovered from. Warnings
// accumulate in the result; they never abort a batch.
type Warning struct {
	Code       string `json:"code"`
	EmployeeID string `json:"employeeId,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Detail     string `json:"detail"`
}

// UnassignedDepartment buckets employees whose directory entry carries no
// department value, so they are never silently dropped from rollups.
const UnassignedDepartment = "unassigned"
