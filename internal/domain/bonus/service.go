package bonus

import (
	"context"

	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/period"
)

type EmployeeLister interface {
	ListActive(ctx context.Context, orgID string) ([]employees.Employee, error)
}

type Scorer interface {
	TallyAll(ctx context.Context, orgID string, emps []employees.Employee, rng period.DateRange, mode evaluation.Mode) (map[string]evaluation.Tally, error)
}

type Service struct {
	store     StoreAPI
	employees EmployeeLister
	scorer    Scorer
}

func NewService(store StoreAPI, emps EmployeeLister, scorer Scorer) *Service {
	return &Service{store: store, employees: emps, scorer: scorer}
}

func (s *Service) Config(ctx context.Context, orgID string) (Config, error) {
	return s.store.GetConfig(ctx, orgID)
}

func (s *Service) UpdateConfig(ctx context.Context, orgID string, cfg Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := s.store.UpdateConfig(ctx, orgID, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Monthly evaluates bonus eligibility of every active employee for p.
// In strict mode an employee with unevaluated task-days fails the whole report.
func (s *Service) Monthly(ctx context.Context, orgID string, p period.Period, mode evaluation.Mode) ([]Result, error) {
	cfg, err := s.store.GetConfig(ctx, orgID)
	if err != nil {
		return nil, err
	}
	emps, err := s.employees.ListActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	tallies, err := s.scorer.TallyAll(ctx, orgID, emps, p.Range(), mode)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(emps))
	for _, emp := range emps {
		tally := tallies[emp.ID]
		res := Evaluate(tally.Zeros, cfg)
		res.EmployeeID = emp.ID
		res.Name = emp.Name
		res.Score = tally.Score
		out = append(out, res)
	}
	return out, nil
}
