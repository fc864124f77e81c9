package rankinghandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
	"perfboard/internal/transport/http/middleware"
)

type fakeService struct {
	settings ranking.Settings
	entries  []ranking.Entry
	asked    period.Period
}

func (f *fakeService) Leaderboard(_ context.Context, _ string, p period.Period) ([]ranking.Entry, ranking.Settings, error) {
	f.asked = p
	return f.entries, f.settings, nil
}

func (f *fakeService) Settings(context.Context, string) (ranking.Settings, error) {
	return f.settings, nil
}

func (f *fakeService) UpdateSettings(_ context.Context, _ string, settings ranking.Settings) (ranking.Settings, error) {
	if err := settings.Validate(); err != nil {
		return ranking.Settings{}, err
	}
	f.settings = settings
	return settings, nil
}

type directory map[string]employees.Employee

func (d directory) ByUserID(_ context.Context, _, userID string) (employees.Employee, error) {
	emp, ok := d[userID]
	if !ok {
		return employees.Employee{}, domainerr.ErrNotFound
	}
	return emp, nil
}

func newRouter(svc *fakeService, user auth.UserContext) http.Handler {
	h := NewHandler(svc, directory{"user-2": {ID: "emp-2"}}, auth.StaticPermissions{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func leaderboard(t *testing.T, router http.Handler, path string) (int, leaderboardResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env struct {
		Data leaderboardResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec.Code, env.Data
}

func TestLeaderboardVisibility(t *testing.T) {
	entries := []ranking.Entry{
		{Rank: 1, EmployeeID: "emp-1", Score: 200},
		{Rank: 2, EmployeeID: "emp-2", Score: 180},
		{Rank: 3, EmployeeID: "emp-3", Score: 150},
	}
	hidden := ranking.DefaultSettings()
	hidden.PublicViewEnabled = false

	tests := []struct {
		name        string
		settings    ranking.Settings
		user        auth.UserContext
		wantEntries []string
	}{
		{
			name:        "public view shows everyone",
			settings:    ranking.DefaultSettings(),
			user:        auth.UserContext{UserID: "user-2", OrganizationID: "org-1", Role: auth.RoleEmployee},
			wantEntries: []string{"emp-1", "emp-2", "emp-3"},
		},
		{
			name:        "hidden view shows own entry",
			settings:    hidden,
			user:        auth.UserContext{UserID: "user-2", OrganizationID: "org-1", Role: auth.RoleEmployee},
			wantEntries: []string{"emp-2"},
		},
		{
			name:     "hidden view without employee record",
			settings: hidden,
			user:     auth.UserContext{UserID: "user-9", OrganizationID: "org-1", Role: auth.RoleEmployee},
		},
		{
			name:        "evaluators always see everyone",
			settings:    hidden,
			user:        auth.UserContext{UserID: "user-5", OrganizationID: "org-1", Role: auth.RoleEvaluator},
			wantEntries: []string{"emp-1", "emp-2", "emp-3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{settings: tc.settings, entries: entries}
			status, body := leaderboard(t, newRouter(svc, tc.user), "/ranking?period=2025-02")
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			if body.Period != "2025-02" || svc.asked.String() != "2025-02" {
				t.Fatalf("expected period 2025-02, got %s / %s", body.Period, svc.asked)
			}
			if len(body.Entries) != len(tc.wantEntries) {
				t.Fatalf("expected %d entries, got %d", len(tc.wantEntries), len(body.Entries))
			}
			for i, id := range tc.wantEntries {
				if body.Entries[i].EmployeeID != id {
					t.Fatalf("expected entry %d to be %s, got %s", i, id, body.Entries[i].EmployeeID)
				}
			}
		})
	}
}

func TestLeaderboardRejectsBadPeriod(t *testing.T) {
	router := newRouter(&fakeService{settings: ranking.DefaultSettings()}, auth.UserContext{UserID: "u", OrganizationID: "org-1", Role: auth.RoleAdmin})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ranking?period=2025-13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSettings(t *testing.T) {
	svc := &fakeService{settings: ranking.DefaultSettings()}
	admin := newRouter(svc, auth.UserContext{UserID: "u", OrganizationID: "org-1", Role: auth.RoleAdmin})

	body := `{"tieBreaker":"manual","includeProbation":true,"publicViewEnabled":false,"notificationLevel":"important","includeChallengePoints":true,"manualOrder":["emp-3","emp-1"]}`
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings/ranking", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.settings.TieBreaker != ranking.TieBreakManual || len(svc.settings.ManualOrder) != 2 {
		t.Fatalf("expected manual settings stored, got %+v", svc.settings)
	}

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings/ranking", strings.NewReader(`{"tieBreaker":"coin","notificationLevel":"all"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown tie-breaker to fail with 400, got %d", rec.Code)
	}

	employee := newRouter(svc, auth.UserContext{UserID: "user-2", OrganizationID: "org-1", Role: auth.RoleEmployee})
	rec = httptest.NewRecorder()
	employee.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings/ranking", strings.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected employees to be forbidden, got %d", rec.Code)
	}
}
