package employees

import (
	"context"
	"strings"

	"perfboard/internal/domain/domainerr"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, orgID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, orgID)
}

// ListActive returns the employees that still take part in evaluations.
func (s *Service) ListActive(ctx context.Context, orgID string) ([]Employee, error) {
	all, err := s.store.ListEmployees(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]Employee, 0, len(all))
	for _, emp := range all {
		if emp.Active() {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, orgID, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, orgID, employeeID)
}

func (s *Service) ByUserID(ctx context.Context, orgID, userID string) (Employee, error) {
	return s.store.EmployeeByUserID(ctx, orgID, userID)
}

func (s *Service) Create(ctx context.Context, emp Employee) (string, error) {
	if strings.TrimSpace(emp.Name) == "" {
		return "", domainerr.Invalid("name", "is required")
	}
	if emp.AdmissionDate.IsZero() {
		return "", domainerr.Invalid("admissionDate", "is required")
	}
	if emp.ProbationEndsAt != nil && emp.ProbationEndsAt.Before(emp.AdmissionDate) {
		return "", domainerr.Invalid("probationEndsAt", "must be on or after admissionDate")
	}
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	return s.store.CreateEmployee(ctx, emp)
}
