package ranking

import (
	"context"
	"time"

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

// ChallengePoints reports approved participation points per employee for
// challenges that ended inside rng.
type ChallengePoints interface {
	ApprovedPoints(ctx context.Context, orgID string, rng period.DateRange) (map[string]int, error)
}

// Observer receives one call per leaderboard built.
type Observer interface {
	ObserveRankingBuild(tieBreaker string, entries int, took time.Duration)
}

type Service struct {
	store      StoreAPI
	employees  EmployeeLister
	scorer     Scorer
	challenges ChallengePoints
	observer   Observer
}

func NewService(store StoreAPI, emps EmployeeLister, scorer Scorer, challenges ChallengePoints, observer Observer) *Service {
	return &Service{store: store, employees: emps, scorer: scorer, challenges: challenges, observer: observer}
}

func (s *Service) Settings(ctx context.Context, orgID string) (Settings, error) {
	return s.store.GetSettings(ctx, orgID)
}

func (s *Service) UpdateSettings(ctx context.Context, orgID string, settings Settings) (Settings, error) {
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.store.UpdateSettings(ctx, orgID, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Leaderboard ranks the organization for p in live mode, with trends against
// the preceding month.
func (s *Service) Leaderboard(ctx context.Context, orgID string, p period.Period) ([]Entry, Settings, error) {
	settings, err := s.store.GetSettings(ctx, orgID)
	if err != nil {
		return nil, Settings{}, err
	}
	emps, err := s.employees.ListActive(ctx, orgID)
	if err != nil {
		return nil, Settings{}, err
	}

	start := time.Now()
	prevCandidates, err := s.candidates(ctx, orgID, emps, p.Previous(), settings)
	if err != nil {
		return nil, Settings{}, err
	}
	previous := Ranks(Build(prevCandidates, settings, nil))

	current, err := s.candidates(ctx, orgID, emps, p, settings)
	if err != nil {
		return nil, Settings{}, err
	}
	entries := Build(current, settings, previous)
	if s.observer != nil {
		s.observer.ObserveRankingBuild(settings.TieBreaker, len(entries), time.Since(start))
	}
	return entries, settings, nil
}

// candidates scores the employees eligible for p. Probation is judged on the
// last day of the period and nobody admitted after the period is listed.
func (s *Service) candidates(ctx context.Context, orgID string, emps []employees.Employee, p period.Period, settings Settings) ([]Candidate, error) {
	end := p.End()
	eligible := make([]employees.Employee, 0, len(emps))
	for _, emp := range emps {
		if !emp.AdmittedBy(end) {
			continue
		}
		if !settings.IncludeProbation && emp.InProbation(end) {
			continue
		}
		eligible = append(eligible, emp)
	}

	rng := p.Range()
	tallies, err := s.scorer.TallyAll(ctx, orgID, eligible, rng, evaluation.ModeLive)
	if err != nil {
		return nil, err
	}
	var bonus map[string]int
	if settings.IncludeChallengePoints && s.challenges != nil {
		bonus, err = s.challenges.ApprovedPoints(ctx, orgID, rng)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Candidate, 0, len(eligible))
	for _, emp := range eligible {
		tally := tallies[emp.ID]
		out = append(out, Candidate{
			EmployeeID:    emp.ID,
			Name:          emp.Name,
			DepartmentID:  emp.DepartmentID,
			Score:         tally.Score + bonus[emp.ID],
			Zeros:         tally.Zeros,
			AdmissionDate: emp.AdmissionDate,
		})
	}
	return out, nil
}
