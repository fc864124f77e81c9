package notifications

import (
	"context"
	"testing"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/ranking"
)

type memoryStore struct{ created []string }

func (m *memoryStore) CreateNotification(_ context.Context, _, userID, ntype, _, _ string) error {
	m.created = append(m.created, ntype+":"+userID)
	return nil
}
func (m *memoryStore) ListNotifications(context.Context, string, string, int, int) ([]Notification, error) {
	return nil, nil
}
func (m *memoryStore) CountNotifications(context.Context, string, string) (int, error) { return 0, nil }
func (m *memoryStore) MarkRead(context.Context, string, string, string) error          { return nil }

type fixedLevel string

func (f fixedLevel) Settings(context.Context, string) (ranking.Settings, error) {
	s := ranking.DefaultSettings()
	s.NotificationLevel = string(f)
	return s, nil
}

type directory map[string]employees.Employee

func (d directory) Get(_ context.Context, _, id string) (employees.Employee, error) {
	emp, ok := d[id]
	if !ok {
		return employees.Employee{}, domainerr.ErrNotFound
	}
	return emp, nil
}

func TestAllowed(t *testing.T) {
	cases := []struct {
		level     string
		important bool
		want      bool
	}{
		{ranking.NotifyAll, false, true},
		{ranking.NotifyAll, true, true},
		{ranking.NotifyImportant, false, false},
		{ranking.NotifyImportant, true, true},
		{ranking.NotifyNone, true, false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.level, tc.important); got != tc.want {
			t.Fatalf("level=%s important=%v: expected %v, got %v", tc.level, tc.important, tc.want, got)
		}
	}
}

func TestNotifyEmployeeRespectsLevelAndAccounts(t *testing.T) {
	emps := directory{
		"e1": {ID: "e1", UserID: "u1"},
		"e2": {ID: "e2"},
	}
	ctx := context.Background()

	store := &memoryStore{}
	svc := New(store, fixedLevel(ranking.NotifyImportant), emps)
	if err := svc.NotifyEmployee(ctx, "org1", "e1", TypeParticipationApproved, "t", "b", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.NotifyEmployee(ctx, "org1", "e1", TypeAwardWon, "t", "b", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.NotifyEmployee(ctx, "org1", "e2", TypeAwardWon, "t", "b", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.NotifyEmployee(ctx, "org1", "ghost", TypeAwardWon, "t", "b", true); err != nil {
		t.Fatalf("missing employees should be skipped, got %v", err)
	}
	if len(store.created) != 1 || store.created[0] != TypeAwardWon+":u1" {
		t.Fatalf("expected only the award notification for u1, got %v", store.created)
	}

	silent := &memoryStore{}
	if err := New(silent, fixedLevel(ranking.NotifyNone), emps).NotifyEmployee(ctx, "org1", "e1", TypeAwardWon, "t", "b", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(silent.created) != 0 {
		t.Fatalf("expected nothing sent at level none, got %v", silent.created)
	}
}
