package attendance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Config carries the two knobs the derivation rules depend on. Nothing in the
// engine falls back to a hidden default; callers load these from the
// application config.
type Config struct {
	// WorkStartTime is the HH:MM threshold after which a check-in is late.
	WorkStartTime string
	// AssumedWorkingDaysPerMonth feeds the attendanceRate ratio. It is an
	// approximation, not a payroll calendar.
	AssumedWorkingDaysPerMonth int
}

var (
	ErrInvalidWorkStart   = errors.New("work start time must be in HH:MM form")
	ErrInvalidWorkingDays = errors.New("assumed working days per month must be positive")
)

func (c Config) Validate() error {
	if _, err := parseWorkStart(c.WorkStartTime); err != nil {
		return err
	}
	if c.AssumedWorkingDaysPerMonth <= 0 {
		return ErrInvalidWorkingDays
	}
	return nil
}

func parseWorkStart(value string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWorkStart, value)
	}
	return parsed.Hour()*3600 + parsed.Minute()*60, nil
}

// Result bundles everything one derivation pass produces. Warnings collect
// recoverable data-quality issues; the batch itself never fails on them.
type Result struct {
	Records  []AttendanceRecord `json:"records"`
	Stats    []DepartmentStat   `json:"stats"`
	Warnings []Warning          `json:"warnings,omitempty"`
}

// Classify decides a scan's type from the number of the employee's prior
// scans on the same calendar day: the first scan of a day is the check-in,
// every later one a check-out. The rule follows scan order, never timestamp
// order, so an out-of-order clock does not flip a classification.
func Classify(priorSameDayScans int) ScanType {
	if priorSameDayScans == 0 {
		return ScanCheckIn
	}
	return ScanCheckOut
}

// Lateness evaluates a check-in instant against the configured work start.
// The boundary is strict: arriving exactly at the threshold is on time,
// one second past it is late. Check-outs are never passed through here.
func Lateness(cfg Config, at time.Time) (late bool, minutes int, err error) {
	threshold, err := parseWorkStart(cfg.WorkStartTime)
	if err != nil {
		return false, 0, err
	}
	late, minutes = latenessAt(threshold, at)
	return late, minutes, nil
}

func latenessAt(thresholdSeconds int, at time.Time) (bool, int) {
	secondOfDay := at.Hour()*3600 + at.Minute()*60 + at.Second()
	if secondOfDay <= thresholdSeconds {
		return false, 0
	}
	return true, (secondOfDay - thresholdSeconds) / 60
}

// ParseTimestamp accepts the ISO-8601 shapes the capture surfaces emit.
// Layouts without an offset are taken in the local clock of this process,
// mirroring how the recording devices stamp scans.
func ParseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// Derive turns an employee directory and an ordered scan log into per-day
// attendance records and department rollups. It is pure: no I/O, no mutation
// of its inputs, deterministic for a given input order. Scans are processed
// in the order given; within one employee and day the first scan becomes the
// check-in and the second the check-out. A third same-day scan is recorded
// as a warning and does not overwrite the existing times (first-two-wins).
//
// Data-quality problems (bad timestamps, unknown or inactive employees,
// checkout before checkin) become warnings. Derive returns an error only for
// an invalid Config, which is a caller bug rather than bad data.
func Derive(employees []Employee, scans []ScanEvent, cfg Config) (Result, error) {
	threshold, err := parseWorkStart(cfg.WorkStartTime)
	if err != nil {
		return Result{}, err
	}
	if cfg.AssumedWorkingDaysPerMonth <= 0 {
		return Result{}, ErrInvalidWorkingDays
	}

	directory := make(map[string]Employee, len(employees))
	for _, emp := range employees {
		directory[emp.EmployeeID] = emp
	}

	var result Result

	type dayKey struct {
		employeeID string
		date       string
	}
	recordIndex := make(map[dayKey]int)
	scanCount := make(map[dayKey]int)

	for _, event := range scans {
		if strings.TrimSpace(event.EmployeeID) == "" {
			result.Warnings = append(result.Warnings, Warning{
				Code:      WarnMalformedInput,
				Timestamp: event.Timestamp,
				Detail:    "scan event has no employee id",
			})
			continue
		}

		at, err := ParseTimestamp(event.Timestamp)
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{
				Code:       WarnMalformedInput,
				EmployeeID: event.EmployeeID,
				Timestamp:  event.Timestamp,
				Detail:     err.Error(),
			})
			continue
		}

		emp, known := directory[event.EmployeeID]
		if !known {
			result.Warnings = append(result.Warnings, Warning{
				Code:       WarnOrphanReference,
				EmployeeID: event.EmployeeID,
				Timestamp:  event.Timestamp,
				Detail:     "scan references no directory entry",
			})
			continue
		}
		if !emp.Active {
			result.Warnings = append(result.Warnings, Warning{
				Code:       WarnInactiveEmployee,
				EmployeeID: event.EmployeeID,
				Timestamp:  event.Timestamp,
				Detail:     "employee is inactive and excluded from scan processing",
			})
			continue
		}

		key := dayKey{employeeID: event.EmployeeID, date: at.Format("2006-01-02")}
		prior := scanCount[key]
		scanCount[key] = prior + 1

		switch {
		case prior == 0:
			late, minutes := latenessAt(threshold, at)
			checkIn := at
			record := AttendanceRecord{
				EmployeeID:          event.EmployeeID,
				Date:                key.date,
				CheckInTime:         &checkIn,
				IsLate:              late,
				LateDurationMinutes: minutes,
				Location:            locationOrDefault(event.Location),
				Status:              StatusPresent,
			}
			if late {
				record.Status = StatusLate
			}
			recordIndex[key] = len(result.Records)
			result.Records = append(result.Records, record)

		case prior == 1:
			record := &result.Records[recordIndex[key]]
			checkOut := at
			record.CheckOutTime = &checkOut
			elapsed := checkOut.Sub(*record.CheckInTime)
			if elapsed < 0 {
				record.DataQualityFlags = append(record.DataQualityFlags, WarnNegativeDuration)
				result.Warnings = append(result.Warnings, Warning{
					Code:       WarnNegativeDuration,
					EmployeeID: event.EmployeeID,
					Timestamp:  event.Timestamp,
					Detail:     "check-out precedes check-in for " + key.date,
				})
			} else {
				record.WorkingHours = &elapsed
			}

		default:
			result.Warnings = append(result.Warnings, Warning{
				Code:       WarnAmbiguousThirdScan,
				EmployeeID: event.EmployeeID,
				Timestamp:  event.Timestamp,
				Detail:     fmt.Sprintf("scan %d on %s ignored, first two scans win", prior+1, key.date),
			})
		}
	}

	result.Stats = rollup(employees, result.Records, cfg.AssumedWorkingDaysPerMonth)
	return result, nil
}

// Rollup folds already-derived records into department aggregates. Exposed
// separately so callers holding memoized records can recompute stats without
// replaying the scan log.
func Rollup(employees []Employee, records []AttendanceRecord, cfg Config) ([]DepartmentStat, error) {
	if cfg.AssumedWorkingDaysPerMonth <= 0 {
		return nil, ErrInvalidWorkingDays
	}
	return rollup(employees, records, cfg.AssumedWorkingDaysPerMonth), nil
}

func rollup(employees []Employee, records []AttendanceRecord, workingDays int) []DepartmentStat {
	departmentOf := make(map[string]string, len(employees))
	stats := map[string]*DepartmentStat{}

	for _, emp := range employees {
		dept := departmentBucket(emp.Department)
		departmentOf[emp.EmployeeID] = dept
		stat, ok := stats[dept]
		if !ok {
			stat = &DepartmentStat{Department: dept}
			stats[dept] = stat
		}
		stat.TotalEmployees++
		if emp.Active {
			stat.ActiveEmployees++
		}
	}

	for _, record := range records {
		dept, known := departmentOf[record.EmployeeID]
		if !known || record.CheckInTime == nil {
			continue
		}
		stat := stats[dept]
		stat.TotalAttendance++
		if record.IsLate {
			stat.LateRecords++
		}
	}

	out := make([]DepartmentStat, 0, len(stats))
	for _, stat := range stats {
		// The ratio is deliberately not clamped at 100: more check-ins than
		// assumed working days pushes it past the bound, and the reporting
		// surfaces expect that value as-is.
		if denominator := stat.ActiveEmployees * workingDays; denominator > 0 {
			stat.AttendanceRate = roundPercent(float64(stat.TotalAttendance) / float64(denominator))
		}
		if stat.TotalAttendance == 0 {
			stat.PunctualityRate = 100
		} else {
			onTime := stat.TotalAttendance - stat.LateRecords
			stat.PunctualityRate = roundPercent(float64(onTime) / float64(stat.TotalAttendance))
		}
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

func roundPercent(ratio float64) int {
	return int(math.Round(100 * ratio))
}

func departmentBucket(department string) string {
	if strings.TrimSpace(department) == "" {
		return UnassignedDepartment
	}
	return department
}

func locationOrDefault(location string) string {
	if strings.TrimSpace(location) == "" {
		return DefaultLocation
	}
	return location
}
