package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	EmployeeID   string
	TOTPSecret   string
	TOTPEnabled  bool
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, role, COALESCE(employee_id, ''),
           COALESCE(totp_secret, ''), totp_enabled
    FROM users
    WHERE lower(email) = lower($1)
  `, email)
	return scanUser(row)
}

// FindUserByEmployeeID backs the employee login screen, which identifies by
// badge id rather than email.
func (s *Store) FindUserByEmployeeID(ctx context.Context, employeeID string) (User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, role, COALESCE(employee_id, ''),
           COALESCE(totp_secret, ''), totp_enabled
    FROM users
    WHERE employee_id = $1
  `, employeeID)
	return scanUser(row)
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateTOTPSecret(ctx context.Context, userID, secret string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET totp_secret = $1 WHERE id = $2", secret, userID)
	return err
}

func (s *Store) SetTOTPEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET totp_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) TOTPSecret(ctx context.Context, userID string) (string, bool, error) {
	var secret string
	var enabled bool
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(totp_secret, ''), totp_enabled FROM users WHERE id = $1
  `, userID).Scan(&secret, &enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, ErrUserNotFound
	}
	if err != nil {
		return "", false, err
	}
	return secret, enabled, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.EmployeeID, &user.TOTPSecret, &user.TOTPEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}
