package awardshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
	"perfboard/internal/transport/http/middleware"
)

type memoryStore struct {
	awards  map[string]awards.Award
	history map[string]awards.HistoryEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{awards: map[string]awards.Award{}, history: map[string]awards.HistoryEntry{}}
}

func (m *memoryStore) ListAwards(_ context.Context, orgID string) ([]awards.Award, error) {
	var out []awards.Award
	for _, a := range m.awards {
		if a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) GetAward(_ context.Context, orgID, awardID string) (awards.Award, error) {
	a, ok := m.awards[awardID]
	if !ok || a.OrganizationID != orgID {
		return awards.Award{}, domainerr.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) CreateAward(_ context.Context, a awards.Award) (string, error) {
	a.ID = uuid.NewString()
	m.awards[a.ID] = a
	return a.ID, nil
}

func (m *memoryStore) UpdateAward(_ context.Context, a awards.Award) error {
	m.awards[a.ID] = a
	return nil
}

func (m *memoryStore) UpsertHistory(_ context.Context, entry awards.HistoryEntry) (awards.HistoryEntry, error) {
	entry.ID = uuid.NewString()
	for id, existing := range m.history {
		if existing.AwardID == entry.AwardID && existing.Period == entry.Period {
			entry.ID = id
			entry.DeliveryPhotoURL = existing.DeliveryPhotoURL
			if entry.Notes == "" {
				entry.Notes = existing.Notes
			}
		}
	}
	m.history[entry.ID] = entry
	return entry, nil
}

func (m *memoryStore) ListHistory(_ context.Context, orgID, p string) ([]awards.HistoryEntry, error) {
	var out []awards.HistoryEntry
	for _, h := range m.history {
		if h.OrganizationID == orgID && (p == "" || h.Period == p) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memoryStore) GetHistory(_ context.Context, orgID, historyID string) (awards.HistoryEntry, error) {
	h, ok := m.history[historyID]
	if !ok || h.OrganizationID != orgID {
		return awards.HistoryEntry{}, domainerr.ErrNotFound
	}
	return h, nil
}

func (m *memoryStore) SetCertificateURL(_ context.Context, _, historyID, url string) error {
	h := m.history[historyID]
	h.CertificateURL = url
	m.history[historyID] = h
	return nil
}

func (m *memoryStore) SetDeliveryPhotoURL(_ context.Context, _, historyID, url string) error {
	h := m.history[historyID]
	h.DeliveryPhotoURL = url
	m.history[historyID] = h
	return nil
}

type staticBoard []ranking.Entry

func (b staticBoard) Leaderboard(context.Context, string, period.Period) ([]ranking.Entry, ranking.Settings, error) {
	return b, ranking.DefaultSettings(), nil
}

type memoryBlobs map[string][]byte

func (b memoryBlobs) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	b[key] = body
	return "/files/" + key, nil
}

type orgNames map[string]string

func (o orgNames) OrganizationName(_ context.Context, orgID string) (string, error) {
	return o[orgID], nil
}

type harness struct {
	router http.Handler
	blobs  memoryBlobs
}

func newHarness(role string) harness {
	board := staticBoard{
		{Rank: 1, EmployeeID: "emp-1", Name: "Ana", DepartmentID: "sales", Score: 200},
		{Rank: 2, EmployeeID: "emp-2", Name: "Bruno", DepartmentID: "ops", Score: 190},
		{Rank: 3, EmployeeID: "emp-3", Name: "Carla", DepartmentID: "sales", Score: 150},
	}
	blobs := memoryBlobs{}
	svc := awards.NewService(newMemoryStore(), board, nil, blobs, nil)
	h := NewHandler(svc, orgNames{"org-1": "Loja Centro"}, auth.StaticPermissions{}, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "admin-1", OrganizationID: "org-1", Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return harness{router: r, blobs: blobs}
}

func (h harness) do(t *testing.T, method, path, body string) (int, json.RawMessage, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	code := ""
	if env.Error != nil {
		code = env.Error.Code
	}
	return rec.Code, env.Data, code
}

func TestResolveAndCertificate(t *testing.T) {
	h := newHarness(auth.RoleAdmin)

	status, data, _ := h.do(t, http.MethodPost, "/awards",
		`{"title":"Destaque de Vendas","winnerCount":2,"isRecurring":true,"eligibleDepartments":["sales"],
		"valuesPerPosition":[{"monetary":500},{"nonMonetary":"Folga"}]}`)
	if status != http.StatusCreated {
		t.Fatalf("expected create 201, got %d", status)
	}
	var award awards.Award
	if err := json.Unmarshal(data, &award); err != nil {
		t.Fatalf("decode award: %v", err)
	}
	if award.Period != awards.PeriodRecurring || award.Status != awards.StatusActive {
		t.Fatalf("expected recurring active award, got %+v", award)
	}

	status, data, _ = h.do(t, http.MethodPost, "/awards/"+award.ID+"/resolve", `{"period":"2025-02"}`)
	if status != http.StatusOK {
		t.Fatalf("expected resolve 200, got %d", status)
	}
	var entry awards.HistoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entry.Winners) != 2 {
		t.Fatalf("expected two sales winners, got %+v", entry.Winners)
	}
	if entry.Winners[0].EmployeeID != "emp-1" || entry.Winners[1].EmployeeID != "emp-3" || entry.Winners[1].Rank != 2 {
		t.Fatalf("expected positions renumbered inside sales, got %+v", entry.Winners)
	}
	if entry.Winners[0].Amount == nil || *entry.Winners[0].Amount != 500 || entry.Winners[1].Prize != "Folga" {
		t.Fatalf("unexpected prizes: %+v", entry.Winners)
	}

	status, data, _ = h.do(t, http.MethodGet, "/awards/history?period=2025-02", "")
	if status != http.StatusOK {
		t.Fatalf("expected history 200, got %d", status)
	}
	var history []awards.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		t.Fatalf("decode history list: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}

	status, data, _ = h.do(t, http.MethodPost, "/awards/history/"+entry.ID+"/certificate", "")
	if status != http.StatusOK {
		t.Fatalf("expected certificate 200, got %d", status)
	}
	var cert map[string]string
	if err := json.Unmarshal(data, &cert); err != nil {
		t.Fatalf("decode certificate: %v", err)
	}
	key := "certificates/org-1/2025-02/" + entry.ID + ".pdf"
	if cert["certificateUrl"] != "/files/"+key {
		t.Fatalf("unexpected certificate url: %s", cert["certificateUrl"])
	}
	if !strings.HasPrefix(string(h.blobs[key]), "%PDF") {
		t.Fatal("expected a PDF to be stored")
	}
}

func TestAwardErrors(t *testing.T) {
	h := newHarness(auth.RoleAdmin)

	status, _, code := h.do(t, http.MethodPost, "/awards/"+uuid.NewString()+"/resolve", `{"period":"2025-02"}`)
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected unknown award 404, got %d %s", status, code)
	}
	status, _, code = h.do(t, http.MethodPost, "/awards/not-a-uuid/resolve", `{"period":"2025-02"}`)
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected malformed award id 404, got %d %s", status, code)
	}
	status, _, code = h.do(t, http.MethodPut, "/awards/not-a-uuid", `{"title":"x","winnerCount":1,"period":"2025-02"}`)
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected malformed award id 404 on update, got %d %s", status, code)
	}

	status, _, code = h.do(t, http.MethodPost, "/awards", `{"title":"Sem ganhadores","winnerCount":0,"period":"2025-02"}`)
	if status != http.StatusBadRequest || code != "validation_error" {
		t.Fatalf("expected winnerCount 0 to fail, got %d %s", status, code)
	}

	status, data, _ := h.do(t, http.MethodPost, "/awards", `{"title":"Natal","winnerCount":1,"period":"2025-12"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected create 201, got %d", status)
	}
	var award awards.Award
	if err := json.Unmarshal(data, &award); err != nil {
		t.Fatalf("decode award: %v", err)
	}
	status, _, code = h.do(t, http.MethodPost, "/awards/"+award.ID+"/resolve", `{"period":"2025-02"}`)
	if status != http.StatusBadRequest || code != "validation_error" {
		t.Fatalf("expected resolving outside the award period to fail, got %d %s", status, code)
	}
	status, _, _ = h.do(t, http.MethodPost, "/awards/"+award.ID+"/resolve", `{"period":"02/2025"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected malformed period to fail, got %d", status)
	}
	status, _, _ = h.do(t, http.MethodGet, "/awards/history?period=bad", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected malformed history period to fail, got %d", status)
	}
	status, _, code = h.do(t, http.MethodPost, "/awards/history/"+uuid.NewString()+"/certificate", "")
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected unknown history 404, got %d %s", status, code)
	}
	status, _, code = h.do(t, http.MethodPost, "/awards/history/missing/certificate", "")
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected malformed history id 404, got %d %s", status, code)
	}
	status, _, code = h.do(t, http.MethodPut, "/awards/history/missing/delivery-photo", "\xff\xd8\xff\xe0")
	if status != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected malformed history id 404 on photo upload, got %d %s", status, code)
	}
}

func TestEmployeesCannotManageAwards(t *testing.T) {
	h := newHarness(auth.RoleEmployee)

	status, _, _ := h.do(t, http.MethodGet, "/awards", "")
	if status != http.StatusOK {
		t.Fatalf("expected employees to read awards, got %d", status)
	}
	status, _, _ = h.do(t, http.MethodPost, "/awards", `{"title":"x","winnerCount":1}`)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestResolveNotesAndDeliveryPhoto(t *testing.T) {
	h := newHarness(auth.RoleAdmin)

	status, data, _ := h.do(t, http.MethodPost, "/awards", `{"title":"Destaque do Mês","winnerCount":1,"isRecurring":true}`)
	if status != http.StatusCreated {
		t.Fatalf("expected create 201, got %d", status)
	}
	var award awards.Award
	if err := json.Unmarshal(data, &award); err != nil {
		t.Fatalf("decode award: %v", err)
	}

	status, data, _ = h.do(t, http.MethodPost, "/awards/"+award.ID+"/resolve", `{"period":"2025-02","notes":"Entregue pela diretoria"}`)
	if status != http.StatusOK {
		t.Fatalf("expected resolve 200, got %d", status)
	}
	var entry awards.HistoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if entry.Notes != "Entregue pela diretoria" {
		t.Fatalf("expected notes to be recorded, got %q", entry.Notes)
	}

	status, _, code := h.do(t, http.MethodPut, "/awards/history/"+entry.ID+"/delivery-photo", "not an image")
	if status != http.StatusBadRequest || code != "validation_error" {
		t.Fatalf("expected non-image upload to fail, got %d %s", status, code)
	}

	status, data, _ = h.do(t, http.MethodPut, "/awards/history/"+entry.ID+"/delivery-photo", "\x89PNG\r\n\x1a\n0000000000000000")
	if status != http.StatusOK {
		t.Fatalf("expected photo upload 200, got %d", status)
	}
	var withPhoto awards.HistoryEntry
	if err := json.Unmarshal(data, &withPhoto); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	key := "deliveries/org-1/2025-02/" + entry.ID + ".png"
	if withPhoto.DeliveryPhotoURL != "/files/"+key || h.blobs[key] == nil {
		t.Fatalf("expected photo stored under %s, got %q", key, withPhoto.DeliveryPhotoURL)
	}

	status, data, _ = h.do(t, http.MethodPost, "/awards/"+award.ID+"/resolve", `{"period":"2025-02"}`)
	if status != http.StatusOK {
		t.Fatalf("expected re-resolve 200, got %d", status)
	}
	var again awards.HistoryEntry
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if again.ID != entry.ID || again.Notes != entry.Notes || again.DeliveryPhotoURL != withPhoto.DeliveryPhotoURL {
		t.Fatalf("expected notes and photo to survive re-resolution, got %+v", again)
	}
}
