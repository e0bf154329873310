package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) InsertScan(ctx context.Context, employeeID string, recordedAt time.Time, location string, scanType ScanType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO scan_events (employee_id, recorded_at, location, scan_type)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, employeeID, recordedAt, location, string(scanType)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) CountScansForDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM scan_events
    WHERE employee_id = $1 AND recorded_at >= $2 AND recorded_at < $3
  `, employeeID, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Scan listings order by insertion sequence, not by recorded_at: the engine
// classifies by scan order and re-sorting would change outcomes.
func (s *Store) ListScansForEmployeeDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]ScanEvent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, recorded_at, COALESCE(location, '')
    FROM scan_events
    WHERE employee_id = $1 AND recorded_at >= $2 AND recorded_at < $3
    ORDER BY seq
  `, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return scanEventsFromRows(rows)
}

func (s *Store) ListScansBetween(ctx context.Context, from, to time.Time) ([]ScanEvent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, recorded_at, COALESCE(location, '')
    FROM scan_events
    WHERE recorded_at >= $1 AND recorded_at < $2
    ORDER BY seq
  `, from, to)
	if err != nil {
		return nil, err
	}
	return scanEventsFromRows(rows)
}

func (s *Store) RecentScans(ctx context.Context, limit int) ([]ScanEvent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, recorded_at, COALESCE(location, '')
    FROM scan_events
    ORDER BY seq DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	return scanEventsFromRows(rows)
}

func scanEventsFromRows(rows pgx.Rows) ([]ScanEvent, error) {
	defer rows.Close()
	var out []ScanEvent
	for rows.Next() {
		var employeeID, location string
		var recordedAt time.Time
		if err := rows.Scan(&employeeID, &recordedAt, &location); err != nil {
			return nil, err
		}
		out = append(out, ScanEvent{
			EmployeeID: employeeID,
			Timestamp:  recordedAt.Format(time.RFC3339Nano),
			Location:   location,
		})
	}
	return out, rows.Err()
}

func (s *Store) UpsertRecord(ctx context.Context, record AttendanceRecord) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_records
      (employee_id, attendance_date, check_in_time, check_out_time, is_late,
       late_duration_minutes, working_seconds, location, status, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (employee_id, attendance_date) DO UPDATE
      SET check_in_time = EXCLUDED.check_in_time,
          check_out_time = EXCLUDED.check_out_time,
          is_late = EXCLUDED.is_late,
          late_duration_minutes = EXCLUDED.late_duration_minutes,
          working_seconds = EXCLUDED.working_seconds,
          location = EXCLUDED.location,
          status = EXCLUDED.status,
          notes = EXCLUDED.notes,
          updated_at = now()
  `, record.EmployeeID, record.Date, record.CheckInTime, record.CheckOutTime, record.IsLate,
		record.LateDurationMinutes, workingSeconds(record.WorkingHours), nullIfEmpty(record.Location),
		record.Status, notesValue(record.DataQualityFlags))
	return err
}

func (s *Store) UpsertRecords(ctx context.Context, records []AttendanceRecord) error {
	for _, record := range records {
		if err := s.UpsertRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListRecordsBetween(ctx context.Context, fromDate, toDate string) ([]AttendanceRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, attendance_date, check_in_time, check_out_time, is_late,
           late_duration_minutes, working_seconds, COALESCE(location, ''), status, notes
    FROM attendance_records
    WHERE attendance_date >= $1 AND attendance_date <= $2
    ORDER BY attendance_date, employee_id
  `, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

func (s *Store) ListAllRecords(ctx context.Context) ([]AttendanceRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, attendance_date, check_in_time, check_out_time, is_late,
           late_duration_minutes, working_seconds, COALESCE(location, ''), status, notes
    FROM attendance_records
    ORDER BY attendance_date, employee_id
  `)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

func recordsFromRows(rows pgx.Rows) ([]AttendanceRecord, error) {
	defer rows.Close()
	var out []AttendanceRecord
	for rows.Next() {
		var record AttendanceRecord
		var date time.Time
		var seconds *int64
		var notes *string
		if err := rows.Scan(&record.EmployeeID, &date, &record.CheckInTime, &record.CheckOutTime,
			&record.IsLate, &record.LateDurationMinutes, &seconds, &record.Location, &record.Status, &notes); err != nil {
			return nil, err
		}
		record.Date = date.Format("2006-01-02")
		if seconds != nil {
			elapsed := time.Duration(*seconds) * time.Second
			record.WorkingHours = &elapsed
		}
		if notes != nil && *notes != "" {
			record.DataQualityFlags = splitNotes(*notes)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func workingSeconds(hours *time.Duration) *int64 {
	if hours == nil {
		return nil
	}
	seconds := int64(hours.Seconds())
	return &seconds
}

func notesValue(flags []string) any {
	if len(flags) == 0 {
		return nil
	}
	return strings.Join(flags, "; ")
}

func splitNotes(notes string) []string {
	return strings.Split(notes, "; ")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
