package evaluation

import (
	"context"
	"errors"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/period"
)

type EmployeeLookup interface {
	Get(ctx context.Context, orgID, employeeID string) (employees.Employee, error)
}

type Service struct {
	store     StoreAPI
	employees EmployeeLookup
	now       func() time.Time
}

func NewService(store StoreAPI, emps EmployeeLookup) *Service {
	return &Service{store: store, employees: emps, now: time.Now}
}

func (s *Service) List(ctx context.Context, orgID, employeeID string, rng period.DateRange) ([]Evaluation, error) {
	return s.store.ListEvaluations(ctx, orgID, employeeID, rng)
}

func (s *Service) Get(ctx context.Context, orgID, evaluationID string) (Evaluation, error) {
	return s.store.GetEvaluation(ctx, orgID, evaluationID)
}

// Record stores a new evaluation; one record per (employee, task, day).
func (s *Service) Record(ctx context.Context, orgID, evaluatorID string, ev Evaluation) (Evaluation, error) {
	ev.OrganizationID = orgID
	ev.EvaluatorID = evaluatorID
	ev.Date = period.Day(ev.Date)
	ev.LastEdited = nil
	if err := ev.Validate(); err != nil {
		return Evaluation{}, err
	}
	if _, err := s.employees.Get(ctx, orgID, ev.EmployeeID); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Evaluation{}, domainerr.Invalid("employeeId", "does not exist")
		}
		return Evaluation{}, err
	}
	if err := s.ensureTask(ctx, orgID, ev.TaskID); err != nil {
		return Evaluation{}, err
	}

	id, err := s.store.CreateEvaluation(ctx, ev)
	if err != nil {
		return Evaluation{}, err
	}
	ev.ID = id
	ev.CreatedAt = s.now().UTC()
	return ev, nil
}

// Edit applies patch to an existing evaluation and stamps lastEdited.
func (s *Service) Edit(ctx context.Context, orgID, evaluationID string, patch Patch) (Evaluation, error) {
	current, err := s.store.GetEvaluation(ctx, orgID, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	next := current
	if patch.Score != nil {
		next.Score = *patch.Score
	}
	if patch.Justification != nil {
		next.Justification = *patch.Justification
	}
	if patch.EvidenceURL != nil {
		next.EvidenceURL = *patch.EvidenceURL
	}
	if err := next.Validate(); err != nil {
		return Evaluation{}, err
	}
	edited := s.now().UTC()
	next.LastEdited = &edited
	if err := s.store.UpdateEvaluation(ctx, next); err != nil {
		return Evaluation{}, err
	}
	return next, nil
}

// Finalize turns a draft into a counted evaluation.
func (s *Service) Finalize(ctx context.Context, orgID, evaluationID string) (Evaluation, error) {
	current, err := s.store.GetEvaluation(ctx, orgID, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if !current.IsDraft {
		return Evaluation{}, &domainerr.InvalidTransitionError{Entity: "evaluation", From: "final", To: "final"}
	}
	if err := current.Validate(); err != nil {
		return Evaluation{}, err
	}
	next := current
	next.IsDraft = false
	edited := s.now().UTC()
	next.LastEdited = &edited
	if err := s.store.UpdateEvaluation(ctx, next); err != nil {
		return Evaluation{}, err
	}
	return next, nil
}

// Tally scores one employee over rng.
func (s *Service) Tally(ctx context.Context, orgID, employeeID string, rng period.DateRange, mode Mode) (Tally, error) {
	emp, err := s.employees.Get(ctx, orgID, employeeID)
	if err != nil {
		return Tally{}, err
	}
	evals, err := s.store.ListEvaluations(ctx, orgID, employeeID, rng)
	if err != nil {
		return Tally{}, err
	}
	var required []TaskDay
	if mode == ModeStrict {
		tasks, err := s.store.ListTasks(ctx, orgID)
		if err != nil {
			return Tally{}, err
		}
		required = RequiredTaskDays(tasks, emp, rng)
	}
	return Calculate(employeeID, rng, evals, required, mode)
}

// TallyAll scores every employee in emps from a single organization snapshot.
// In strict mode the first incomplete employee fails the whole call.
func (s *Service) TallyAll(ctx context.Context, orgID string, emps []employees.Employee, rng period.DateRange, mode Mode) (map[string]Tally, error) {
	evals, err := s.store.ListOrganizationEvaluations(ctx, orgID, rng)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	if mode == ModeStrict {
		tasks, err = s.store.ListTasks(ctx, orgID)
		if err != nil {
			return nil, err
		}
	}

	byEmployee := make(map[string][]Evaluation, len(emps))
	for _, ev := range evals {
		byEmployee[ev.EmployeeID] = append(byEmployee[ev.EmployeeID], ev)
	}

	out := make(map[string]Tally, len(emps))
	for _, emp := range emps {
		var required []TaskDay
		if mode == ModeStrict {
			required = RequiredTaskDays(tasks, emp, rng)
		}
		tally, err := Calculate(emp.ID, rng, byEmployee[emp.ID], required, mode)
		if err != nil {
			return nil, err
		}
		out[emp.ID] = tally
	}
	return out, nil
}

func (s *Service) ListTasks(ctx context.Context, orgID string) ([]Task, error) {
	return s.store.ListTasks(ctx, orgID)
}

func (s *Service) CreateTask(ctx context.Context, orgID string, task Task) (Task, error) {
	task.OrganizationID = orgID
	if task.Target.Type == "" {
		task.Target.Type = TargetOrganization
	}
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	id, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return Task{}, err
	}
	task.ID = id
	return task, nil
}

func (s *Service) ensureTask(ctx context.Context, orgID, taskID string) error {
	tasks, err := s.store.ListTasks(ctx, orgID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.ID == taskID {
			return nil
		}
	}
	return domainerr.Invalid("taskId", "does not exist")
}
