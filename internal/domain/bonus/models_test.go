package bonus

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/period"
)

func TestEvaluateAtLimitIsEligible(t *testing.T) {
	cfg := Config{BaseValue: 500, ZeroLimit: 2}
	cases := []struct {
		zeros    int
		eligible bool
		amount   float64
	}{
		{0, true, 500},
		{2, true, 500},
		{3, false, 0},
	}
	for _, tc := range cases {
		res := Evaluate(tc.zeros, cfg)
		if res.Eligible != tc.eligible || res.Amount != tc.amount {
			t.Fatalf("zeros=%d: expected eligible=%v amount=%v, got %+v", tc.zeros, tc.eligible, tc.amount, res)
		}
	}
}

func TestEvaluateZeroLimitZero(t *testing.T) {
	cfg := Config{BaseValue: 300, ZeroLimit: 0}
	if res := Evaluate(0, cfg); !res.Eligible {
		t.Fatal("expected employee without zeros to be eligible")
	}
	if res := Evaluate(1, cfg); res.Eligible || res.Amount != 0 {
		t.Fatalf("expected single zero to disqualify, got %+v", res)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{BaseValue: -1}).Validate(); err == nil {
		t.Fatal("expected negative base value to be rejected")
	}
	if err := (Config{ZeroLimit: -1}).Validate(); err == nil {
		t.Fatal("expected negative zero limit to be rejected")
	}
}

type memoryStore struct{ cfg Config }

func (m *memoryStore) GetConfig(context.Context, string) (Config, error) { return m.cfg, nil }
func (m *memoryStore) UpdateConfig(_ context.Context, _ string, cfg Config) error {
	m.cfg = cfg
	return nil
}

type staticEmployees []employees.Employee

func (s staticEmployees) ListActive(context.Context, string) ([]employees.Employee, error) {
	return s, nil
}

type staticScorer struct {
	tallies map[string]evaluation.Tally
	err     error
}

func (s staticScorer) TallyAll(context.Context, string, []employees.Employee, period.DateRange, evaluation.Mode) (map[string]evaluation.Tally, error) {
	return s.tallies, s.err
}

func TestMonthlyAppliesPolicyPerEmployee(t *testing.T) {
	store := &memoryStore{cfg: Config{BaseValue: 200, ZeroLimit: 1}}
	emps := staticEmployees{
		{ID: "e1", Name: "Ana", AdmissionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "e2", Name: "Bruno", AdmissionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	scorer := staticScorer{tallies: map[string]evaluation.Tally{
		"e1": {EmployeeID: "e1", Score: 190, Zeros: 1},
		"e2": {EmployeeID: "e2", Score: 150, Zeros: 5},
	}}
	p, _ := period.Parse("2024-07")

	results, err := NewService(store, emps, scorer).Monthly(context.Background(), "org1", p, evaluation.ModeLive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Eligible || results[0].Amount != 200 || results[0].Name != "Ana" {
		t.Fatalf("unexpected result for e1: %+v", results[0])
	}
	if results[1].Eligible || results[1].Amount != 0 || results[1].Score != 150 {
		t.Fatalf("unexpected result for e2: %+v", results[1])
	}
}

func TestMonthlySurfacesIncompleteData(t *testing.T) {
	store := &memoryStore{}
	scorer := staticScorer{err: &domainerr.IncompleteDataError{EmployeeID: "e1", Missing: []string{"t1@2024-07-01"}}}
	p, _ := period.Parse("2024-07")

	_, err := NewService(store, staticEmployees{{ID: "e1"}}, scorer).Monthly(context.Background(), "org1", p, evaluation.ModeStrict)
	var incomplete *domainerr.IncompleteDataError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteDataError, got %v", err)
	}
}
