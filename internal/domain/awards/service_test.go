package awards

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
)

type fakeStore struct {
	awards  map[string]Award
	history map[string]HistoryEntry
	seq     int
}

func newFakeStore(list ...Award) *fakeStore {
	f := &fakeStore{awards: map[string]Award{}, history: map[string]HistoryEntry{}}
	for _, a := range list {
		f.awards[a.ID] = a
	}
	return f
}

func (f *fakeStore) ListAwards(_ context.Context, orgID string) ([]Award, error) {
	var out []Award
	for _, id := range []string{"a1", "a2", "a3"} {
		if a, ok := f.awards[id]; ok && a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAward(_ context.Context, orgID, id string) (Award, error) {
	a, ok := f.awards[id]
	if !ok || a.OrganizationID != orgID {
		return Award{}, domainerr.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) CreateAward(_ context.Context, a Award) (string, error) {
	f.seq++
	a.ID = fmt.Sprintf("new-%d", f.seq)
	f.awards[a.ID] = a
	return a.ID, nil
}

func (f *fakeStore) UpdateAward(_ context.Context, a Award) error {
	f.awards[a.ID] = a
	return nil
}

func (f *fakeStore) UpsertHistory(_ context.Context, entry HistoryEntry) (HistoryEntry, error) {
	key := entry.AwardID + "@" + entry.Period
	if existing, ok := f.history[key]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.DeliveryPhotoURL = existing.DeliveryPhotoURL
		if entry.Notes == "" {
			entry.Notes = existing.Notes
		}
	} else {
		f.seq++
		entry.ID = fmt.Sprintf("h-%d", f.seq)
		entry.CreatedAt = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	}
	f.history[key] = entry
	return entry, nil
}

func (f *fakeStore) ListHistory(_ context.Context, orgID, p string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, h := range f.history {
		if h.OrganizationID == orgID && (p == "" || h.Period == p) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) GetHistory(_ context.Context, orgID, id string) (HistoryEntry, error) {
	for _, h := range f.history {
		if h.ID == id && h.OrganizationID == orgID {
			return h, nil
		}
	}
	return HistoryEntry{}, domainerr.ErrNotFound
}

func (f *fakeStore) SetCertificateURL(_ context.Context, orgID, id, url string) error {
	return f.setLink(orgID, id, func(h *HistoryEntry) { h.CertificateURL = url })
}

func (f *fakeStore) SetDeliveryPhotoURL(_ context.Context, orgID, id, url string) error {
	return f.setLink(orgID, id, func(h *HistoryEntry) { h.DeliveryPhotoURL = url })
}

func (f *fakeStore) setLink(orgID, id string, set func(*HistoryEntry)) error {
	for key, h := range f.history {
		if h.ID == id && h.OrganizationID == orgID {
			set(&h)
			f.history[key] = h
			return nil
		}
	}
	return domainerr.ErrNotFound
}

type staticBoard struct{ entries []ranking.Entry }

func (s *staticBoard) Leaderboard(context.Context, string, period.Period) ([]ranking.Entry, ranking.Settings, error) {
	return s.entries, ranking.DefaultSettings(), nil
}

type recordingNotifier struct{ sent []string }

func (r *recordingNotifier) NotifyEmployee(_ context.Context, _, employeeID, kind, _, _ string, important bool) error {
	if !important {
		return errors.New("winner notifications must be important")
	}
	r.sent = append(r.sent, kind+":"+employeeID)
	return nil
}

type memoryBlobs map[string][]byte

func (m memoryBlobs) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	m[key] = body
	return "https://files.example.com/" + key, nil
}

func newTestService(list ...Award) (*Service, *fakeStore, *staticBoard, *recordingNotifier, memoryBlobs) {
	store := newFakeStore(list...)
	b := &staticBoard{entries: board()}
	notifier := &recordingNotifier{}
	blobs := memoryBlobs{}
	svc := NewService(store, b, notifier, blobs, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store, b, notifier, blobs
}

func TestResolveUnknownAward(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	_, err := svc.Resolve(context.Background(), "org1", "missing", mustPeriod("2024-07"), "")
	var nerr *domainerr.AwardNotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected AwardNotFoundError, got %v", err)
	}
	if nerr.AwardID != "missing" {
		t.Fatalf("expected award id missing, got %s", nerr.AwardID)
	}
}

func TestResolveReplacesEarlierResolution(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "Top 2", Period: PeriodRecurring, WinnerCount: 2,
		EligibleDepartments: []string{AllDepartments}, Status: StatusActive}
	svc, store, b, notifier, _ := newTestService(award)
	ctx := context.Background()
	july := mustPeriod("2024-07")

	first, err := svc.Resolve(ctx, "org1", "a1", july, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 winner notifications, got %v", notifier.sent)
	}

	b.entries = []ranking.Entry{b.entries[3], b.entries[0]}
	second, err := svc.Resolve(ctx, "org1", "a1", july, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same history id, got %s and %s", first.ID, second.ID)
	}
	if len(store.history) != 1 {
		t.Fatalf("expected a single history entry, got %d", len(store.history))
	}
	if store.history["a1@2024-07"].Winners[0].EmployeeID != "e4" {
		t.Fatalf("expected corrected winners, got %+v", store.history["a1@2024-07"].Winners)
	}
}

func TestResolveRejectsAwardOutsidePeriod(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "June only", Period: "2024-06", WinnerCount: 1, Status: StatusActive}
	svc, store, _, _, _ := newTestService(award)

	_, err := svc.Resolve(context.Background(), "org1", "a1", mustPeriod("2024-07"), "")
	var verr *domainerr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.history) != 0 {
		t.Fatal("expected no history to be written")
	}
}

func TestResolvePeriodHandlesEveryDueAward(t *testing.T) {
	svc, store, _, _, _ := newTestService(
		Award{ID: "a1", OrganizationID: "org1", Title: "Monthly", Period: PeriodRecurring, WinnerCount: 1, EligibleDepartments: []string{AllDepartments}, Status: StatusActive},
		Award{ID: "a2", OrganizationID: "org1", Title: "July sales", Period: "2024-07", WinnerCount: 1, EligibleDepartments: []string{"sales"}, Status: StatusActive},
		Award{ID: "a3", OrganizationID: "org1", Title: "Paused", Period: PeriodRecurring, WinnerCount: 1, Status: StatusInactive},
	)

	out, err := svc.ResolvePeriod(context.Background(), "org1", mustPeriod("2024-07"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || len(store.history) != 2 {
		t.Fatalf("expected 2 resolutions, got %d (%d stored)", len(out), len(store.history))
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	created, err := svc.Create(context.Background(), "org1", Award{Title: "Recorrente", IsRecurring: true, WinnerCount: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Period != PeriodRecurring || created.Status != StatusActive || created.EligibleDepartments[0] != AllDepartments {
		t.Fatalf("unexpected defaults: %+v", created)
	}

	if _, err := svc.Create(context.Background(), "org1", Award{Title: "Broken", Period: "2024-13", WinnerCount: 1}); err == nil {
		t.Fatal("expected invalid period to be rejected")
	}
}

func TestCertificateIsStoredAsPDF(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "Destaque do Mês", Period: PeriodRecurring, WinnerCount: 2,
		MonetaryValue: money(1500), EligibleDepartments: []string{AllDepartments}, Status: StatusActive}
	svc, store, _, _, blobs := newTestService(award)
	ctx := context.Background()

	entry, err := svc.Resolve(ctx, "org1", "a1", mustPeriod("2024-07"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	url, err := svc.Certificate(ctx, "org1", "Acme", entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := "certificates/org1/2024-07/" + entry.ID + ".pdf"
	if url != "https://files.example.com/"+key {
		t.Fatalf("unexpected url: %s", url)
	}
	if !bytes.HasPrefix(blobs[key], []byte("%PDF")) {
		t.Fatal("expected stored certificate to be a PDF")
	}
	if store.history["a1@2024-07"].CertificateURL != url {
		t.Fatal("expected certificate url to be recorded")
	}
}

func TestResolveRejectsAwardWithoutEligibleCandidates(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "Destaque RH", Period: PeriodRecurring, WinnerCount: 1,
		EligibleDepartments: []string{"hr"}, Status: StatusActive}
	svc, store, _, notifier, _ := newTestService(award)

	_, err := svc.Resolve(context.Background(), "org1", "a1", mustPeriod("2024-07"), "")
	var verr *domainerr.ValidationError
	if !errors.As(err, &verr) || verr.Field != "eligibleDepartments" {
		t.Fatalf("expected eligibleDepartments ValidationError, got %v", err)
	}
	if len(store.history) != 0 || len(notifier.sent) != 0 {
		t.Fatalf("expected nothing stored or sent, got %d entries and %v", len(store.history), notifier.sent)
	}
}

func TestResolveKeepsNotesAndDeliveryPhoto(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "Top 1", Period: PeriodRecurring, WinnerCount: 1,
		EligibleDepartments: []string{AllDepartments}, Status: StatusActive}
	svc, store, _, _, blobs := newTestService(award)
	ctx := context.Background()
	july := mustPeriod("2024-07")

	first, err := svc.Resolve(ctx, "org1", "a1", july, "  Entregue na reunião geral ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Notes != "Entregue na reunião geral" {
		t.Fatalf("expected trimmed notes, got %q", first.Notes)
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	withPhoto, err := svc.AttachDeliveryPhoto(ctx, "org1", first.ID, png)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := "deliveries/org1/2024-07/" + first.ID + ".png"
	if withPhoto.DeliveryPhotoURL != "https://files.example.com/"+key || blobs[key] == nil {
		t.Fatalf("expected photo stored under %s, got %q", key, withPhoto.DeliveryPhotoURL)
	}

	again, err := svc.Resolve(ctx, "org1", "a1", july, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Notes != first.Notes || again.DeliveryPhotoURL != withPhoto.DeliveryPhotoURL {
		t.Fatalf("expected notes and photo to survive re-resolution, got %+v", again)
	}
	if store.history["a1@2024-07"].DeliveryPhotoURL == "" {
		t.Fatal("expected stored entry to keep the photo")
	}
}

func TestAttachDeliveryPhotoRejectsNonImages(t *testing.T) {
	award := Award{ID: "a1", OrganizationID: "org1", Title: "Top 1", Period: PeriodRecurring, WinnerCount: 1,
		EligibleDepartments: []string{AllDepartments}, Status: StatusActive}
	svc, _, _, _, blobs := newTestService(award)
	ctx := context.Background()

	entry, err := svc.Resolve(ctx, "org1", "a1", mustPeriod("2024-07"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.AttachDeliveryPhoto(ctx, "org1", entry.ID, []byte("%PDF-1.4 not a photo"))
	var verr *domainerr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(blobs) != 0 {
		t.Fatal("expected nothing stored")
	}
	if _, err := svc.AttachDeliveryPhoto(ctx, "org1", "missing", []byte("\xff\xd8\xff\xe0")); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown entry, got %v", err)
	}
}
