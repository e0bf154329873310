package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attendease/internal/domain/attendance"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

func (s *Service) Create(ctx context.Context, employeeID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, employeeID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}

	email, err := s.store.EmployeeEmail(ctx, employeeID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) ([]map[string]any, error) {
	return s.store.ListNotifications(ctx, employeeID, limit, offset)
}

func (s *Service) Count(ctx context.Context, employeeID string) (int, error) {
	return s.store.CountNotifications(ctx, employeeID)
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}

// LateArrival implements attendance.Notifier. Failures are logged and
// swallowed so a notification hiccup never rejects a scan.
func (s *Service) LateArrival(ctx context.Context, employee attendance.Employee, at time.Time, minutes int) {
	title := "Late check-in recorded"
	body := fmt.Sprintf("%s checked in %d minute(s) late at %s.",
		employee.Name, minutes, at.Format("15:04"))
	if err := s.Create(ctx, employee.EmployeeID, TypeLateArrival, title, body); err != nil {
		slog.Warn("late arrival notification failed", "employeeId", employee.EmployeeID, "err", err)
	}
}
