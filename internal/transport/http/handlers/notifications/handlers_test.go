package notificationshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/notifications"
	"perfboard/internal/transport/http/middleware"
)

const knownID = "7b0f5d0e-4f51-4b7a-9c39-2f8a6b1c0d11"

type fakeService struct {
	read []string
}

func (f *fakeService) List(context.Context, string, string, int, int) ([]notifications.Notification, error) {
	return nil, nil
}

func (f *fakeService) Count(context.Context, string, string) (int, error) {
	return 0, nil
}

func (f *fakeService) MarkRead(_ context.Context, _, _, notificationID string) error {
	if notificationID != knownID {
		return domainerr.ErrNotFound
	}
	f.read = append(f.read, notificationID)
	return nil
}

func serve(h *Handler, req *http.Request, withUser bool) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	if withUser {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-1", OrganizationID: "org-1", Role: auth.RoleEmployee})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestNotifications(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/notifications", nil), false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/notifications", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "known", id: knownID, wantStatus: http.StatusOK},
		{name: "not a uuid", id: "abc", wantStatus: http.StatusNotFound},
		{name: "someone else's", id: "00000000-0000-4000-8000-000000000000", wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodPost, "/notifications/"+tc.id+"/read", nil), true)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
	if len(svc.read) != 1 {
		t.Fatalf("expected one notification marked read, got %v", svc.read)
	}
}
