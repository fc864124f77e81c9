package challengeshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/challenge"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/notifications"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, orgID string) ([]challenge.Challenge, error)
	Get(ctx context.Context, orgID, challengeID string) (challenge.Challenge, error)
	Create(ctx context.Context, orgID string, c challenge.Challenge) (challenge.Challenge, error)
	Publish(ctx context.Context, orgID, challengeID string) (challenge.Challenge, error)
	Complete(ctx context.Context, orgID, challengeID string) (challenge.Challenge, error)
	Archive(ctx context.Context, orgID, challengeID string) (challenge.Challenge, error)
	Override(ctx context.Context, orgID, challengeID, to string) (challenge.Challenge, error)
	ListParticipations(ctx context.Context, orgID, challengeID string) ([]challenge.Participation, error)
	Participation(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Challenge, challenge.Participation, error)
	Accept(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Participation, error)
	Submit(ctx context.Context, orgID, challengeID, employeeID, submission string) (challenge.Participation, error)
	Resubmit(ctx context.Context, orgID, challengeID, employeeID, submission string) (challenge.Participation, error)
	Approve(ctx context.Context, orgID, challengeID, employeeID, reviewerID string, score *int) (challenge.Participation, error)
	Reject(ctx context.Context, orgID, challengeID, employeeID, reviewerID, feedback string) (challenge.Participation, error)
}

type Directory interface {
	ListActive(ctx context.Context, orgID string) ([]employees.Employee, error)
	ByUserID(ctx context.Context, orgID, userID string) (employees.Employee, error)
}

type Notifier interface {
	NotifyEmployee(ctx context.Context, orgID, employeeID, kind, title, body string, important bool) error
}

type Handler struct {
	Service   Service
	Directory Directory
	Notify    Notifier
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
}

func NewHandler(service Service, directory Directory, notifier Notifier, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Directory: directory, Notify: notifier, Perms: perms, Audit: auditor}
}

type eligibilityRequest struct {
	Type      string   `json:"type" validate:"omitempty,oneof=all department role individual"`
	EntityIDs []string `json:"entityIds"`
}

type createRequest struct {
	Title             string             `json:"title" validate:"required"`
	Description       string             `json:"description"`
	Category          string             `json:"category"`
	PeriodStart       string             `json:"periodStart" validate:"required"`
	PeriodEnd         string             `json:"periodEnd" validate:"required"`
	Points            int                `json:"points" validate:"required,gt=0"`
	Difficulty        string             `json:"difficulty"`
	ParticipationType string             `json:"participationType" validate:"required"`
	Eligibility       eligibilityRequest `json:"eligibility"`
	EvaluationMetrics []string           `json:"evaluationMetrics"`
}

type overrideRequest struct {
	Status string `json:"status" validate:"required,oneof=draft scheduled active evaluating completed archived"`
}

type submissionRequest struct {
	Submission string `json:"submission" validate:"required"`
}

type approveRequest struct {
	Score *int `json:"score" validate:"omitempty,min=0"`
}

type rejectRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermChallengesRead, h.Perms)
	manage := middleware.RequirePermission(auth.PermChallengesManage, h.Perms)
	participate := middleware.RequirePermission(auth.PermChallengesParticipate, h.Perms)
	review := middleware.RequirePermission(auth.PermChallengesReview, h.Perms)

	r.Route("/challenges", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(manage).Post("/", h.handleCreate)
		r.Route("/{challengeID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(manage).Post("/publish", h.handlePublish)
			r.With(manage).Post("/complete", h.handleComplete)
			r.With(manage).Post("/archive", h.handleArchive)
			r.With(manage).Post("/override", h.handleOverride)

			r.With(review).Get("/participations", h.handleListParticipations)
			r.With(review).Post("/participations/{employeeID}/approve", h.handleApprove)
			r.With(review).Post("/participations/{employeeID}/reject", h.handleReject)

			r.With(participate).Get("/participation", h.handleOwnParticipation)
			r.With(participate).Post("/participation/accept", h.handleAccept)
			r.With(participate).Post("/participation/submit", h.handleSubmit)
			r.With(participate).Post("/participation/resubmit", h.handleResubmit)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.List(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, len(items))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), user.OrganizationID, challengeID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload createRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.OrganizationID, challenge.Challenge{
		Title:             payload.Title,
		Description:       payload.Description,
		Category:          payload.Category,
		PeriodStart:       start,
		PeriodEnd:         end,
		Points:            payload.Points,
		Difficulty:        payload.Difficulty,
		ParticipationType: payload.ParticipationType,
		Eligibility:       challenge.Eligibility{Type: payload.Eligibility.Type, EntityIDs: payload.Eligibility.EntityIDs},
		EvaluationMetrics: payload.EvaluationMetrics,
	})
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionChallengeCreate, challenge.EntityChallenge, created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, func(ctx context.Context, orgID, id string) (challenge.Challenge, error) {
		c, err := h.Service.Publish(ctx, orgID, id)
		if err == nil {
			h.announce(ctx, c)
		}
		return c, err
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.Service.Complete)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.Service.Archive)
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	var payload overrideRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	h.changeStatus(w, r, func(ctx context.Context, orgID, id string) (challenge.Challenge, error) {
		return h.Service.Override(ctx, orgID, id, payload.Status)
	})
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, orgID, challengeID string) (challenge.Challenge, error)) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}

	before, err := h.Service.Get(r.Context(), user.OrganizationID, challengeID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	after, err := apply(r.Context(), user.OrganizationID, challengeID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionChallengeStatus, challenge.EntityChallenge, challengeID,
		map[string]string{"status": before.Status}, map[string]string{"status": after.Status})
	api.Success(w, after, requestID)
}

// announce tells every eligible active employee about a published challenge.
func (h *Handler) announce(ctx context.Context, c challenge.Challenge) {
	if h.Notify == nil || h.Directory == nil {
		return
	}
	emps, err := h.Directory.ListActive(ctx, c.OrganizationID)
	if err != nil {
		slog.Warn("challenge announcement skipped", "challengeId", c.ID, "err", err)
		return
	}
	body := fmt.Sprintf("%s: %d points, %s to %s", c.ParticipationType, c.Points,
		c.PeriodStart.Format("2006-01-02"), c.PeriodEnd.Format("2006-01-02"))
	for _, emp := range emps {
		if !c.Eligibility.Includes(emp) {
			continue
		}
		if err := h.Notify.NotifyEmployee(ctx, c.OrganizationID, emp.ID, notifications.TypeChallengePublished, c.Title, body, false); err != nil {
			slog.Warn("challenge announcement failed", "challengeId", c.ID, "employeeId", emp.ID, "err", err)
		}
	}
}

func (h *Handler) handleListParticipations(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}

	items, err := h.Service.ListParticipations(r.Context(), user.OrganizationID, challengeID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

// callerEmployee resolves the employee record of the caller or writes a 403.
func (h *Handler) callerEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	if h.Directory == nil {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "caller has no employee record", requestID)
		return "", false
	}
	emp, err := h.Directory.ByUserID(r.Context(), user.OrganizationID, user.UserID)
	if errors.Is(err, domainerr.ErrNotFound) {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "caller has no employee record", requestID)
		return "", false
	}
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return "", false
	}
	return emp.ID, true
}

func (h *Handler) handleOwnParticipation(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}
	employeeID, ok := h.callerEmployee(w, r, user)
	if !ok {
		return
	}

	c, p, err := h.Service.Participation(r.Context(), user.OrganizationID, challengeID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"challenge": c, "participation": p}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.participate(w, r, func(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Participation, error) {
		return h.Service.Accept(ctx, orgID, challengeID, employeeID)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submissionRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	h.participate(w, r, func(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Participation, error) {
		return h.Service.Submit(ctx, orgID, challengeID, employeeID, payload.Submission)
	})
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	var payload submissionRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	h.participate(w, r, func(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Participation, error) {
		return h.Service.Resubmit(ctx, orgID, challengeID, employeeID, payload.Submission)
	})
}

func (h *Handler) participate(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, orgID, challengeID, employeeID string) (challenge.Participation, error)) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}
	employeeID, ok := h.callerEmployee(w, r, user)
	if !ok {
		return
	}

	p, err := apply(r.Context(), user.OrganizationID, challengeID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionParticipation, challenge.EntityParticipation, p.ID, nil, p)
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var payload approveRequest
	if r.ContentLength != 0 && !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	h.review(w, r, notifications.TypeParticipationApproved, func(ctx context.Context, user auth.UserContext, challengeID, employeeID string) (challenge.Participation, error) {
		return h.Service.Approve(ctx, user.OrganizationID, challengeID, employeeID, user.UserID, payload.Score)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload rejectRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	h.review(w, r, notifications.TypeParticipationRejected, func(ctx context.Context, user auth.UserContext, challengeID, employeeID string) (challenge.Participation, error) {
		return h.Service.Reject(ctx, user.OrganizationID, challengeID, employeeID, user.UserID, payload.Feedback)
	})
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, kind string, apply func(ctx context.Context, user auth.UserContext, challengeID, employeeID string) (challenge.Participation, error)) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	challengeID, ok := shared.PathID(w, r, "challengeID", nil)
	if !ok {
		return
	}
	employeeID, ok := shared.PathID(w, r, "employeeID", nil)
	if !ok {
		return
	}

	p, err := apply(r.Context(), user, challengeID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionParticipation, challenge.EntityParticipation, p.ID, nil, p)
	if h.Notify != nil {
		title := "Challenge submission reviewed"
		if c, err := h.Service.Get(r.Context(), user.OrganizationID, challengeID); err == nil {
			title = c.Title
		}
		body := "Your submission was " + p.Status
		if p.Feedback != "" {
			body += ": " + p.Feedback
		}
		if err := h.Notify.NotifyEmployee(r.Context(), user.OrganizationID, employeeID, kind, title, body, false); err != nil {
			slog.Warn("participation notification failed", "challengeId", challengeID, "employeeId", employeeID, "err", err)
		}
	}
	api.Success(w, p, requestID)
}
