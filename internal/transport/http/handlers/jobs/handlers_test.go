package jobshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/period"
	"perfboard/internal/transport/http/middleware"
)

type recordingRunner struct {
	types []string
}

func (r *recordingRunner) RunNow(ctx context.Context, jobType, _ string, run func(context.Context) (any, error)) (any, error) {
	r.types = append(r.types, jobType)
	return run(ctx)
}

type sweeper int

func (s sweeper) Sweep(context.Context, string) (int, error) {
	return int(s), nil
}

type closer struct {
	asked period.Period
}

func (c *closer) ResolvePeriod(_ context.Context, _ string, p period.Period) ([]awards.HistoryEntry, error) {
	c.asked = p
	return []awards.HistoryEntry{{AwardID: "award-1", Period: p.String()}}, nil
}

func TestJobRoutes(t *testing.T) {
	runner := &recordingRunner{}
	c := &closer{}
	h := NewHandler(runner, sweeper(3), c, auth.StaticPermissions{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-1", OrganizationID: "org-1", Role: auth.RoleAdmin})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/challenge-sweep", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"moved":3`) {
		t.Fatalf("expected sweep result, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/award-close", strings.NewReader(`{"period":"2025-01"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected award close 200, got %d", rec.Code)
	}
	if c.asked.String() != "2025-01" {
		t.Fatalf("expected period 2025-01, got %s", c.asked)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/award-close", strings.NewReader(`{"period":"janeiro"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad period 400, got %d", rec.Code)
	}

	if len(runner.types) != 2 || runner.types[0] != "challenge_sweep" || runner.types[1] != "award_close" {
		t.Fatalf("unexpected job runs: %v", runner.types)
	}
}
