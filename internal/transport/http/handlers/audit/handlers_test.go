package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/transport/http/middleware"
)

type fakeService struct {
	entries []audit.Entry
	filter  audit.Filter
	limit   int
}

func (f *fakeService) Count(_ context.Context, _ string, _ audit.Filter) (int, error) {
	return len(f.entries), nil
}

func (f *fakeService) List(_ context.Context, _ string, filter audit.Filter, limit, _ int) ([]audit.Entry, error) {
	f.filter = filter
	f.limit = limit
	return f.entries, nil
}

func newRouter(svc *fakeService, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-1", OrganizationID: "org-1", Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, auth.StaticPermissions{}).RegisterRoutes(r)
	return r
}

func TestListAuditEvents(t *testing.T) {
	svc := &fakeService{entries: []audit.Entry{{ID: "a-1", Action: audit.ActionEvaluationEdit}}}
	router := newRouter(svc, auth.RoleAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?action=evaluation.edit&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("expected total count header, got %q", rec.Header().Get("X-Total-Count"))
	}
	if svc.filter.Action != audit.ActionEvaluationEdit || svc.limit != 10 {
		t.Fatalf("expected filter and limit to pass through, got %+v limit %d", svc.filter, svc.limit)
	}

	rec = httptest.NewRecorder()
	newRouter(svc, auth.RoleEvaluator).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected evaluator to be forbidden, got %d", rec.Code)
	}
}

func TestExportAuditEvents(t *testing.T) {
	svc := &fakeService{entries: []audit.Entry{{
		ID:         "a-1",
		ActorID:    "u-1",
		Action:     audit.ActionAwardResolve,
		EntityType: "award_history",
		EntityID:   "h-1",
		CreatedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}}}

	rec := httptest.NewRecorder()
	newRouter(svc, auth.RoleSuperAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if rows[1][2] != audit.ActionAwardResolve || rows[1][7] != "2025-03-01T09:00:00Z" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
	if svc.limit != exportLimit {
		t.Fatalf("expected export limit %d, got %d", exportLimit, svc.limit)
	}
}
