package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"attendease/internal/domain/auth"
	"attendease/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if cfg.SeedDemoData {
		return ensureDemoEmployees(ctx, pool)
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if password == "" {
		password = "admin123"
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = lower($1)", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role)
    VALUES ($1, $2, $3)
  `, email, hash, auth.RoleAdmin)
	return err
}

func ensureDemoEmployees(ctx context.Context, pool *pgxpool.Pool) error {
	demo := []struct {
		id, name, email, department, designation string
	}{
		{"EMP001", "John Doe", "john.doe@company.com", "IT", "Software Engineer"},
		{"EMP002", "Jane Smith", "jane.smith@company.com", "HR", "HR Manager"},
		{"EMP003", "Mike Johnson", "mike.johnson@company.com", "Finance", "Accountant"},
	}
	for _, employee := range demo {
		_, err := pool.Exec(ctx, `
      INSERT INTO employees (employee_id, name, email, department, designation, active)
      VALUES ($1,$2,$3,$4,$5,true)
      ON CONFLICT (employee_id) DO NOTHING
    `, employee.id, employee.name, employee.email, employee.department, employee.designation)
		if err != nil {
			return err
		}
	}
	return nil
}
