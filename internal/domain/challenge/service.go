package challenge

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

// Observer is told about every persisted status change.
type Observer interface {
	ObserveTransition(entity, from, to string)
}

type Service struct {
	store     StoreAPI
	employees EmployeeLookup
	observer  Observer
	now       func() time.Time
}

func NewService(store StoreAPI, emps EmployeeLookup, observer Observer) *Service {
	return &Service{store: store, employees: emps, observer: observer, now: time.Now}
}

func (s *Service) List(ctx context.Context, orgID string) ([]Challenge, error) {
	return s.store.ListChallenges(ctx, orgID)
}

func (s *Service) Get(ctx context.Context, orgID, challengeID string) (Challenge, error) {
	return s.store.GetChallenge(ctx, orgID, challengeID)
}

// Create stores a new challenge as a draft.
func (s *Service) Create(ctx context.Context, orgID string, c Challenge) (Challenge, error) {
	c.OrganizationID = orgID
	c.Status = StatusDraft
	c.PeriodStart = period.Day(c.PeriodStart)
	c.PeriodEnd = period.Day(c.PeriodEnd)
	if c.Eligibility.Type == "" {
		c.Eligibility.Type = EligibleAll
	}
	if err := c.Validate(); err != nil {
		return Challenge{}, err
	}
	id, err := s.store.CreateChallenge(ctx, c)
	if err != nil {
		return Challenge{}, err
	}
	c.ID = id
	c.CreatedAt = s.now().UTC()
	return c, nil
}

// Publish schedules a draft and immediately applies any time-driven move.
func (s *Service) Publish(ctx context.Context, orgID, challengeID string) (Challenge, error) {
	current, err := s.store.GetChallenge(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	next, err := Publish(current)
	if err != nil {
		return Challenge{}, err
	}
	next, _ = Advance(next, s.now())
	return s.persist(ctx, current, next)
}

func (s *Service) Complete(ctx context.Context, orgID, challengeID string) (Challenge, error) {
	current, err := s.store.GetChallenge(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	parts, err := s.store.ListParticipations(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	next, err := Complete(current, parts)
	if err != nil {
		return Challenge{}, err
	}
	return s.persist(ctx, current, next)
}

func (s *Service) Archive(ctx context.Context, orgID, challengeID string) (Challenge, error) {
	current, err := s.store.GetChallenge(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	next, err := Archive(current)
	if err != nil {
		return Challenge{}, err
	}
	return s.persist(ctx, current, next)
}

func (s *Service) Override(ctx context.Context, orgID, challengeID, to string) (Challenge, error) {
	current, err := s.store.GetChallenge(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	next, err := Override(current, to)
	if err != nil {
		return Challenge{}, err
	}
	return s.persist(ctx, current, next)
}

// Sweep applies the time-driven transitions to every scheduled or active
// challenge of the organization and returns how many moved.
func (s *Service) Sweep(ctx context.Context, orgID string) (int, error) {
	list, err := s.store.ListChallenges(ctx, orgID, StatusScheduled, StatusActive)
	if err != nil {
		return 0, err
	}
	now := s.now()
	moved := 0
	for _, current := range list {
		next, changed := Advance(current, now)
		if !changed {
			continue
		}
		if _, err := s.persist(ctx, current, next); err != nil {
			if errors.Is(err, domainerr.ErrConflict) {
				continue
			}
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (s *Service) persist(ctx context.Context, current, next Challenge) (Challenge, error) {
	if err := s.store.UpdateChallengeStatus(ctx, current.OrganizationID, current.ID, current.Status, next.Status); err != nil {
		return Challenge{}, err
	}
	s.observe(EntityChallenge, current.Status, next.Status)
	return next, nil
}

func (s *Service) observe(entity, from, to string) {
	if s.observer != nil {
		s.observer.ObserveTransition(entity, from, to)
	}
}

func (s *Service) ListParticipations(ctx context.Context, orgID, challengeID string) ([]Participation, error) {
	if _, err := s.store.GetChallenge(ctx, orgID, challengeID); err != nil {
		return nil, err
	}
	return s.store.ListParticipations(ctx, orgID, challengeID)
}

// Participation returns the employee's participation, creating the pending
// row on first access. Ineligible employees never get a row.
func (s *Service) Participation(ctx context.Context, orgID, challengeID, employeeID string) (Challenge, Participation, error) {
	c, err := s.store.GetChallenge(ctx, orgID, challengeID)
	if err != nil {
		return Challenge{}, Participation{}, err
	}
	emp, err := s.employees.Get(ctx, orgID, employeeID)
	if err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Challenge{}, Participation{}, &domainerr.NotEligibleError{ChallengeID: challengeID, EmployeeID: employeeID}
		}
		return Challenge{}, Participation{}, err
	}
	if !c.Eligibility.Includes(emp) {
		return Challenge{}, Participation{}, &domainerr.NotEligibleError{ChallengeID: challengeID, EmployeeID: employeeID}
	}

	p, err := s.store.GetParticipation(ctx, orgID, challengeID, employeeID)
	if err == nil {
		return c, p, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return Challenge{}, Participation{}, err
	}
	p = Participation{OrganizationID: orgID, ChallengeID: challengeID, EmployeeID: employeeID, Status: ParticipationPending}
	id, err := s.store.CreateParticipation(ctx, p)
	if errors.Is(err, domainerr.ErrConflict) {
		p, err = s.store.GetParticipation(ctx, orgID, challengeID, employeeID)
		return c, p, err
	}
	if err != nil {
		return Challenge{}, Participation{}, err
	}
	p.ID = id
	return c, p, nil
}

func (s *Service) Accept(ctx context.Context, orgID, challengeID, employeeID string) (Participation, error) {
	return s.transition(ctx, orgID, challengeID, employeeID, func(c Challenge, p Participation, now time.Time) (Participation, error) {
		return Accept(c, p, now)
	})
}

func (s *Service) Submit(ctx context.Context, orgID, challengeID, employeeID, submission string) (Participation, error) {
	return s.transition(ctx, orgID, challengeID, employeeID, func(c Challenge, p Participation, now time.Time) (Participation, error) {
		return Submit(c, p, submission, now)
	})
}

func (s *Service) Resubmit(ctx context.Context, orgID, challengeID, employeeID, submission string) (Participation, error) {
	return s.transition(ctx, orgID, challengeID, employeeID, func(c Challenge, p Participation, now time.Time) (Participation, error) {
		return Resubmit(c, p, submission, now)
	})
}

func (s *Service) Approve(ctx context.Context, orgID, challengeID, employeeID, reviewerID string, score *int) (Participation, error) {
	return s.transition(ctx, orgID, challengeID, employeeID, func(c Challenge, p Participation, now time.Time) (Participation, error) {
		return Approve(c, p, score, reviewerID, now)
	})
}

func (s *Service) Reject(ctx context.Context, orgID, challengeID, employeeID, reviewerID, feedback string) (Participation, error) {
	return s.transition(ctx, orgID, challengeID, employeeID, func(_ Challenge, p Participation, now time.Time) (Participation, error) {
		return Reject(p, feedback, reviewerID, now)
	})
}

func (s *Service) transition(ctx context.Context, orgID, challengeID, employeeID string, apply func(Challenge, Participation, time.Time) (Participation, error)) (Participation, error) {
	c, current, err := s.Participation(ctx, orgID, challengeID, employeeID)
	if err != nil {
		return Participation{}, err
	}
	next, err := apply(c, current, s.now())
	if err != nil {
		return Participation{}, err
	}
	if err := s.store.UpdateParticipation(ctx, next, current.Status); err != nil {
		return Participation{}, err
	}
	s.observe(EntityParticipation, current.Status, next.Status)
	return next, nil
}

// ApprovedPoints sums approved participation scores of challenges ending in rng.
func (s *Service) ApprovedPoints(ctx context.Context, orgID string, rng period.DateRange) (map[string]int, error) {
	return s.store.ApprovedPoints(ctx, orgID, rng.Start, rng.End)
}
