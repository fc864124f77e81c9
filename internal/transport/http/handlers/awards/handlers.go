package awardshandler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, orgID string) ([]awards.Award, error)
	Create(ctx context.Context, orgID string, a awards.Award) (awards.Award, error)
	Update(ctx context.Context, orgID, awardID string, a awards.Award) (awards.Award, error)
	Resolve(ctx context.Context, orgID, awardID string, p period.Period, notes string) (awards.HistoryEntry, error)
	History(ctx context.Context, orgID, period string) ([]awards.HistoryEntry, error)
	Certificate(ctx context.Context, orgID, organizationName, historyID string) (string, error)
	AttachDeliveryPhoto(ctx context.Context, orgID, historyID string, body []byte) (awards.HistoryEntry, error)
}

type Organizations interface {
	OrganizationName(ctx context.Context, orgID string) (string, error)
}

type Handler struct {
	Service       Service
	Organizations Organizations
	Perms         middleware.PermissionStore
	Audit         shared.Auditor
}

func NewHandler(service Service, orgs Organizations, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Organizations: orgs, Perms: perms, Audit: auditor}
}

type positionValueRequest struct {
	Monetary    *float64 `json:"monetary" validate:"omitempty,min=0"`
	NonMonetary string   `json:"nonMonetary"`
}

type awardRequest struct {
	Title               string                 `json:"title" validate:"required"`
	Description         string                 `json:"description"`
	MonetaryValue       *float64               `json:"monetaryValue" validate:"omitempty,min=0"`
	NonMonetaryValue    string                 `json:"nonMonetaryValue"`
	Period              string                 `json:"period"`
	WinnerCount         int                    `json:"winnerCount" validate:"required,min=1"`
	EligibleDepartments []string               `json:"eligibleDepartments"`
	Status              string                 `json:"status" validate:"omitempty,oneof=active inactive"`
	IsRecurring         bool                   `json:"isRecurring"`
	SpecificMonth       string                 `json:"specificMonth"`
	ValuesPerPosition   []positionValueRequest `json:"valuesPerPosition" validate:"dive"`
}

func (p awardRequest) model() awards.Award {
	a := awards.Award{
		Title:               p.Title,
		Description:         p.Description,
		MonetaryValue:       p.MonetaryValue,
		NonMonetaryValue:    p.NonMonetaryValue,
		Period:              strings.TrimSpace(p.Period),
		WinnerCount:         p.WinnerCount,
		EligibleDepartments: p.EligibleDepartments,
		Status:              p.Status,
		IsRecurring:         p.IsRecurring,
		SpecificMonth:       strings.TrimSpace(p.SpecificMonth),
	}
	for _, pv := range p.ValuesPerPosition {
		a.ValuesPerPosition = append(a.ValuesPerPosition, awards.PositionValue{Monetary: pv.Monetary, NonMonetary: pv.NonMonetary})
	}
	return a
}

type resolveRequest struct {
	Period string `json:"period" validate:"required"`
	Notes  string `json:"notes" validate:"max=2000"`
}

func awardNotFound(id string) error {
	return &domainerr.AwardNotFoundError{AwardID: id}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAwardsRead, h.Perms)
	manage := middleware.RequirePermission(auth.PermAwardsManage, h.Perms)

	r.Route("/awards", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(manage).Post("/", h.handleCreate)
		r.With(read).Get("/history", h.handleHistory)
		r.With(manage).Post("/history/{historyID}/certificate", h.handleCertificate)
		r.With(manage).Put("/history/{historyID}/delivery-photo", h.handleDeliveryPhoto)
		r.With(manage).Put("/{awardID}", h.handleUpdate)
		r.With(manage).Post("/{awardID}/resolve", h.handleResolve)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload awardRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	created, err := h.Service.Create(r.Context(), user.OrganizationID, payload.model())
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionAwardCreate, "award", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	awardID, ok := shared.PathID(w, r, "awardID", awardNotFound)
	if !ok {
		return
	}

	var payload awardRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	updated, err := h.Service.Update(r.Context(), user.OrganizationID, awardID, payload.model())
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionAwardUpdate, "award", awardID, nil, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	awardID, ok := shared.PathID(w, r, "awardID", awardNotFound)
	if !ok {
		return
	}

	var payload resolveRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	p, err := period.Parse(strings.TrimSpace(payload.Period))
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	entry, err := h.Service.Resolve(r.Context(), user.OrganizationID, awardID, p, payload.Notes)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionAwardResolve, "award_history", entry.ID, nil, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw != "" {
		if _, err := period.Parse(raw); err != nil {
			shared.FailDomain(w, err, requestID)
			return
		}
	}
	entries, err := h.Service.History(r.Context(), user.OrganizationID, raw)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	historyID, ok := shared.PathID(w, r, "historyID", nil)
	if !ok {
		return
	}

	orgName := ""
	if h.Organizations != nil {
		name, err := h.Organizations.OrganizationName(r.Context(), user.OrganizationID)
		if err != nil {
			shared.FailDomain(w, err, requestID)
			return
		}
		orgName = name
	}

	url, err := h.Service.Certificate(r.Context(), user.OrganizationID, orgName, historyID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionCertificate, "award_history", historyID, nil, map[string]string{"certificateUrl": url})
	api.Success(w, map[string]string{"id": historyID, "certificateUrl": url}, requestID)
}

// handleDeliveryPhoto takes the raw image as the request body.
func (h *Handler) handleDeliveryPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	historyID, ok := shared.PathID(w, r, "historyID", nil)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "photo too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "could not read photo", requestID)
		return
	}

	entry, err := h.Service.AttachDeliveryPhoto(r.Context(), user.OrganizationID, historyID, body)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionDeliveryPhoto, "award_history", historyID, nil, map[string]string{"deliveryPhotoUrl": entry.DeliveryPhotoURL})
	api.Success(w, entry, requestID)
}
