package notifications

import (
	"context"
	"errors"
	"log/slog"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/ranking"
)

// LevelSource exposes the organization's notificationLevel setting.
type LevelSource interface {
	Settings(ctx context.Context, orgID string) (ranking.Settings, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, orgID, employeeID string) (employees.Employee, error)
}

type Service struct {
	store     StoreAPI
	levels    LevelSource
	employees EmployeeLookup
}

func New(store StoreAPI, levels LevelSource, emps EmployeeLookup) *Service {
	return &Service{store: store, levels: levels, employees: emps}
}

// Allowed applies the notification level: all lets everything through,
// important only important messages, none nothing.
func Allowed(level string, important bool) bool {
	switch level {
	case ranking.NotifyNone:
		return false
	case ranking.NotifyImportant:
		return important
	}
	return true
}

func (s *Service) Create(ctx context.Context, orgID, userID, ntype, title, body string) error {
	return s.store.CreateNotification(ctx, orgID, userID, ntype, title, body)
}

// NotifyEmployee sends an in-app notification to the user account of an
// employee if the organization's level allows it. Employees without an
// account are skipped silently.
func (s *Service) NotifyEmployee(ctx context.Context, orgID, employeeID, ntype, title, body string, important bool) error {
	settings, err := s.levels.Settings(ctx, orgID)
	if err != nil {
		return err
	}
	if !Allowed(settings.NotificationLevel, important) {
		return nil
	}
	emp, err := s.employees.Get(ctx, orgID, employeeID)
	if errors.Is(err, domainerr.ErrNotFound) {
		slog.Warn("notification target missing", "employeeId", employeeID)
		return nil
	}
	if err != nil {
		return err
	}
	if emp.UserID == "" {
		return nil
	}
	return s.store.CreateNotification(ctx, orgID, emp.UserID, ntype, title, body)
}

func (s *Service) List(ctx context.Context, orgID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, orgID, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, orgID, userID string) (int, error) {
	return s.store.CountNotifications(ctx, orgID, userID)
}

func (s *Service) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, orgID, userID, notificationID)
}
