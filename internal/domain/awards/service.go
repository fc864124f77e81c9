package awards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
)

type Leaderboard interface {
	Leaderboard(ctx context.Context, orgID string, p period.Period) ([]ranking.Entry, ranking.Settings, error)
}

// Notifier delivers in-app messages to the user behind an employee.
type Notifier interface {
	NotifyEmployee(ctx context.Context, orgID, employeeID, kind, title, body string, important bool) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type Observer interface {
	ObserveAwardResolution(outcome string, winners int)
}

const NotificationAwardWon = "award_won"

type Service struct {
	store    StoreAPI
	ranking  Leaderboard
	notifier Notifier
	blobs    BlobStore
	observer Observer
	now      func() time.Time
}

func NewService(store StoreAPI, board Leaderboard, notifier Notifier, blobs BlobStore, observer Observer) *Service {
	return &Service{store: store, ranking: board, notifier: notifier, blobs: blobs, observer: observer, now: time.Now}
}

func (s *Service) List(ctx context.Context, orgID string) ([]Award, error) {
	return s.store.ListAwards(ctx, orgID)
}

func (s *Service) Create(ctx context.Context, orgID string, a Award) (Award, error) {
	a.OrganizationID = orgID
	normalize(&a)
	if err := a.Validate(); err != nil {
		return Award{}, err
	}
	id, err := s.store.CreateAward(ctx, a)
	if err != nil {
		return Award{}, err
	}
	a.ID = id
	a.CreatedAt = s.now().UTC()
	return a, nil
}

func (s *Service) Update(ctx context.Context, orgID, awardID string, a Award) (Award, error) {
	current, err := s.get(ctx, orgID, awardID)
	if err != nil {
		return Award{}, err
	}
	a.ID = current.ID
	a.OrganizationID = orgID
	a.CreatedAt = current.CreatedAt
	normalize(&a)
	if err := a.Validate(); err != nil {
		return Award{}, err
	}
	if err := s.store.UpdateAward(ctx, a); err != nil {
		return Award{}, err
	}
	return a, nil
}

func normalize(a *Award) {
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.IsRecurring && a.Period == "" {
		a.Period = PeriodRecurring
	}
	if a.Period == PeriodRecurring {
		a.IsRecurring = true
	}
	if len(a.EligibleDepartments) == 0 {
		a.EligibleDepartments = []string{AllDepartments}
	}
}

func (s *Service) get(ctx context.Context, orgID, awardID string) (Award, error) {
	a, err := s.store.GetAward(ctx, orgID, awardID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return Award{}, &domainerr.AwardNotFoundError{AwardID: awardID}
	}
	return a, err
}

// Resolve records the winners of one award for p, replacing any earlier
// resolution of the same period. Blank notes keep the ones already recorded.
func (s *Service) Resolve(ctx context.Context, orgID, awardID string, p period.Period, notes string) (HistoryEntry, error) {
	a, err := s.get(ctx, orgID, awardID)
	if err != nil {
		s.observe("not_found", 0)
		return HistoryEntry{}, err
	}
	if a.Status != StatusActive || !a.MatchesPeriod(p) {
		s.observe("not_applicable", 0)
		return HistoryEntry{}, domainerr.Invalid("period", fmt.Sprintf("award %s does not apply to %s", a.Title, p))
	}
	entries, _, err := s.ranking.Leaderboard(ctx, orgID, p)
	if err != nil {
		s.observe("failed", 0)
		return HistoryEntry{}, err
	}
	if len(Candidates([]Award{a}, p, entries)) == 0 {
		s.observe("not_applicable", 0)
		return HistoryEntry{}, domainerr.Invalid("eligibleDepartments", fmt.Sprintf("no ranked employee of %s is eligible for %s", p, a.Title))
	}
	return s.record(ctx, a, p, entries, strings.TrimSpace(notes))
}

// ResolvePeriod resolves every award due for p. Used by the monthly close job.
func (s *Service) ResolvePeriod(ctx context.Context, orgID string, p period.Period) ([]HistoryEntry, error) {
	list, err := s.store.ListAwards(ctx, orgID)
	if err != nil {
		return nil, err
	}
	entries, _, err := s.ranking.Leaderboard(ctx, orgID, p)
	if err != nil {
		return nil, err
	}
	var out []HistoryEntry
	for _, a := range Candidates(list, p, entries) {
		h, err := s.record(ctx, a, p, entries, "")
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}

// record stores the resolution and tells the winners. Notification failures
// are logged and never undo the stored entry.
func (s *Service) record(ctx context.Context, a Award, p period.Period, entries []ranking.Entry, notes string) (HistoryEntry, error) {
	resolved := Resolve(a, p, entries)
	resolved.Notes = notes
	entry, err := s.store.UpsertHistory(ctx, resolved)
	if err != nil {
		s.observe("failed", 0)
		return HistoryEntry{}, err
	}
	s.observe("resolved", len(entry.Winners))

	if s.notifier != nil {
		for _, w := range entry.Winners {
			body := fmt.Sprintf("Você ficou em %dº lugar em %s (%s). Prêmio: %s", w.Rank, entry.AwardTitle, entry.Period, w.Prize)
			if err := s.notifier.NotifyEmployee(ctx, a.OrganizationID, w.EmployeeID, NotificationAwardWon, entry.AwardTitle, body, true); err != nil {
				slog.Warn("award winner notify failed", "awardId", a.ID, "employeeId", w.EmployeeID, "err", err)
			}
		}
	}
	return entry, nil
}

func (s *Service) observe(outcome string, winners int) {
	if s.observer != nil {
		s.observer.ObserveAwardResolution(outcome, winners)
	}
}

func (s *Service) History(ctx context.Context, orgID, period string) ([]HistoryEntry, error) {
	return s.store.ListHistory(ctx, orgID, period)
}

// Certificate renders the delivery certificate of a history entry, stores it
// and returns its link.
func (s *Service) Certificate(ctx context.Context, orgID, organizationName, historyID string) (string, error) {
	if s.blobs == nil {
		return "", errors.New("certificate storage is not configured")
	}
	entry, err := s.store.GetHistory(ctx, orgID, historyID)
	if err != nil {
		return "", err
	}
	pdf, err := RenderCertificate(entry, organizationName, s.now())
	if err != nil {
		return "", fmt.Errorf("render certificate: %w", err)
	}
	key := fmt.Sprintf("certificates/%s/%s/%s.pdf", orgID, entry.Period, entry.ID)
	url, err := s.blobs.Put(ctx, key, pdf, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("store certificate: %w", err)
	}
	if err := s.store.SetCertificateURL(ctx, orgID, historyID, url); err != nil {
		return "", err
	}
	return url, nil
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AttachDeliveryPhoto stores the picture taken when the prize was handed over
// and links it to the history entry. The content type is sniffed from body.
func (s *Service) AttachDeliveryPhoto(ctx context.Context, orgID, historyID string, body []byte) (HistoryEntry, error) {
	if s.blobs == nil {
		return HistoryEntry{}, errors.New("photo storage is not configured")
	}
	if len(body) == 0 {
		return HistoryEntry{}, domainerr.Invalid("photo", "is required")
	}
	contentType := http.DetectContentType(body)
	ext, ok := photoExtensions[contentType]
	if !ok {
		return HistoryEntry{}, domainerr.Invalid("photo", "must be a JPEG, PNG or WebP image")
	}
	entry, err := s.store.GetHistory(ctx, orgID, historyID)
	if err != nil {
		return HistoryEntry{}, err
	}
	key := fmt.Sprintf("deliveries/%s/%s/%s%s", orgID, entry.Period, entry.ID, ext)
	url, err := s.blobs.Put(ctx, key, body, contentType)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("store delivery photo: %w", err)
	}
	if err := s.store.SetDeliveryPhotoURL(ctx, orgID, historyID, url); err != nil {
		return HistoryEntry{}, err
	}
	entry.DeliveryPhotoURL = url
	return entry, nil
}
