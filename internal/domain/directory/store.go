package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendease/internal/domain/attendance"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    employee_id, name, COALESCE(email, ''), COALESCE(phone, ''),
    COALESCE(department, ''), COALESCE(designation, ''), active, created_at, updated_at`

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    ORDER BY employee_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE employee_id = $1
  `, employeeID)
	employee, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return employee, err
}

func (s *Store) CreateEmployee(ctx context.Context, employee Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (employee_id, name, email, phone, department, designation, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, employee.EmployeeID, employee.Name, nullIfEmpty(employee.Email), nullIfEmpty(employee.Phone),
		nullIfEmpty(employee.Department), nullIfEmpty(employee.Designation), employee.Active)
	if isUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *Store) UpdateEmployee(ctx context.Context, employee Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $1,
        email = $2,
        phone = $3,
        department = $4,
        designation = $5,
        active = $6,
        updated_at = now()
    WHERE employee_id = $7
  `, employee.Name, nullIfEmpty(employee.Email), nullIfEmpty(employee.Phone),
		nullIfEmpty(employee.Department), nullIfEmpty(employee.Designation), employee.Active, employee.EmployeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateEmployee is the delete path: the row stays for historical
// rollups, the employee just stops matching scans.
func (s *Store) DeactivateEmployee(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET active = false, updated_at = now()
    WHERE employee_id = $1
  `, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EngineEmployees, FindEngineEmployee and UpsertEngineEmployee implement
// attendance.DirectorySource.

func (s *Store) EngineEmployees(ctx context.Context) ([]attendance.Employee, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]attendance.Employee, 0, len(employees))
	for _, employee := range employees {
		out = append(out, employee.Employee)
	}
	return out, nil
}

func (s *Store) FindEngineEmployee(ctx context.Context, employeeID string) (attendance.Employee, bool, error) {
	employee, err := s.GetEmployee(ctx, employeeID)
	if errors.Is(err, ErrNotFound) {
		return attendance.Employee{}, false, nil
	}
	if err != nil {
		return attendance.Employee{}, false, err
	}
	return employee.Employee, true, nil
}

func (s *Store) UpsertEngineEmployee(ctx context.Context, employee attendance.Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (employee_id, name, email, phone, department, designation, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id) DO UPDATE
      SET name = EXCLUDED.name,
          email = EXCLUDED.email,
          phone = EXCLUDED.phone,
          department = EXCLUDED.department,
          designation = EXCLUDED.designation,
          active = EXCLUDED.active,
          updated_at = now()
  `, employee.EmployeeID, employee.Name, nullIfEmpty(employee.Email), nullIfEmpty(employee.Phone),
		nullIfEmpty(employee.Department), nullIfEmpty(employee.Designation), employee.Active)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var employee Employee
	err := row.Scan(
		&employee.EmployeeID, &employee.Name, &employee.Email, &employee.Phone,
		&employee.Department, &employee.Designation, &employee.Active,
		&employee.CreatedAt, &employee.UpdatedAt,
	)
	return employee, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
