package notifications

import "context"

func (s *Store) CreateNotification(ctx context.Context, employeeID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (employee_id, type, title, body)
    VALUES ($1,$2,$3,$4)
  `, employeeID, ntype, title, body)
	return err
}

func (s *Store) EmployeeEmail(ctx context.Context, employeeID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx,
		"SELECT COALESCE(email, '') FROM employees WHERE employee_id = $1", employeeID,
	).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) ListNotifications(ctx context.Context, employeeID string, limit, offset int) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, ntype, title, body string
		var readAt, createdAt any
		if err := rows.Scan(&id, &ntype, &title, &body, &readAt, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":        id,
			"type":      ntype,
			"title":     title,
			"body":      body,
			"readAt":    readAt,
			"createdAt": createdAt,
		})
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, employeeID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notifications WHERE employee_id = $1", employeeID,
	).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE employee_id = $1 AND id = $2
  `, employeeID, notificationID)
	return err
}
