package evaluationshandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/period"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, orgID, employeeID string, rng period.DateRange) ([]evaluation.Evaluation, error)
	Get(ctx context.Context, orgID, evaluationID string) (evaluation.Evaluation, error)
	Record(ctx context.Context, orgID, evaluatorID string, ev evaluation.Evaluation) (evaluation.Evaluation, error)
	Edit(ctx context.Context, orgID, evaluationID string, patch evaluation.Patch) (evaluation.Evaluation, error)
	Finalize(ctx context.Context, orgID, evaluationID string) (evaluation.Evaluation, error)
	Tally(ctx context.Context, orgID, employeeID string, rng period.DateRange, mode evaluation.Mode) (evaluation.Tally, error)
	ListTasks(ctx context.Context, orgID string) ([]evaluation.Task, error)
	CreateTask(ctx context.Context, orgID string, task evaluation.Task) (evaluation.Task, error)
}

// Recorder counts evaluation writes by kind.
type Recorder interface {
	ObserveEvaluation(kind string)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	Metrics Recorder
	now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore, auditor shared.Auditor, metrics Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Metrics: metrics, now: time.Now}
}

type recordRequest struct {
	EmployeeID    string `json:"employeeId" validate:"required,uuid"`
	TaskID        string `json:"taskId" validate:"required,uuid"`
	Date          string `json:"date" validate:"required"`
	Score         *int   `json:"score" validate:"required"`
	Justification string `json:"justification"`
	EvidenceURL   string `json:"evidenceUrl" validate:"omitempty,url"`
	IsDraft       bool   `json:"isDraft"`
}

type editRequest struct {
	Score         *int    `json:"score"`
	Justification *string `json:"justification"`
	EvidenceURL   *string `json:"evidenceUrl"`
}

type taskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Criteria    string `json:"criteria"`
	Target      struct {
		Type      string   `json:"type" validate:"omitempty,oneof=organization role department individual"`
		EntityIDs []string `json:"entityIds"`
	} `json:"target"`
	Weekdays []int `json:"weekdays" validate:"dive,min=0,max=6"`
	Active   *bool `json:"active"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/", h.handleRecord)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/{evaluationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Put("/{evaluationID}", h.handleEdit)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/{evaluationID}/finalize", h.handleFinalize)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/", h.handleListTasks)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/", h.handleCreateTask)
	})
	r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/employees/{employeeID}/score", h.handleScore)
}

func (h *Handler) observe(kind string) {
	if h.Metrics != nil {
		h.Metrics.ObserveEvaluation(kind)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if employeeID == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "is required"}})
		return
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "must be a valid id"}})
		return
	}
	rng, err := shared.QueryRange(r, h.now())
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	items, err := h.Service.List(r.Context(), user.OrganizationID, employeeID, rng)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	shared.SetTotal(w, len(items))
	api.Success(w, items, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	evaluationID, ok := shared.PathID(w, r, "evaluationID", nil)
	if !ok {
		return
	}

	ev, err := h.Service.Get(r.Context(), user.OrganizationID, evaluationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload recordRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	ev, err := h.Service.Record(r.Context(), user.OrganizationID, user.UserID, evaluation.Evaluation{
		EmployeeID:    payload.EmployeeID,
		TaskID:        payload.TaskID,
		Date:          date,
		Score:         *payload.Score,
		Justification: payload.Justification,
		EvidenceURL:   payload.EvidenceURL,
		IsDraft:       payload.IsDraft,
	})
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	h.observe("record")
	shared.Audit(r, h.Audit, user, audit.ActionEvaluationRecord, "evaluation", ev.ID, nil, ev)
	api.Created(w, ev, requestID)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	evaluationID, ok := shared.PathID(w, r, "evaluationID", nil)
	if !ok {
		return
	}

	var payload editRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	before, err := h.Service.Get(r.Context(), user.OrganizationID, evaluationID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	after, err := h.Service.Edit(r.Context(), user.OrganizationID, evaluationID, evaluation.Patch{
		Score:         payload.Score,
		Justification: payload.Justification,
		EvidenceURL:   payload.EvidenceURL,
	})
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	h.observe("edit")
	shared.Audit(r, h.Audit, user, audit.ActionEvaluationEdit, "evaluation", evaluationID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	evaluationID, ok := shared.PathID(w, r, "evaluationID", nil)
	if !ok {
		return
	}

	ev, err := h.Service.Finalize(r.Context(), user.OrganizationID, evaluationID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	h.observe("finalize")
	shared.Audit(r, h.Audit, user, audit.ActionEvaluationFinalize, "evaluation", evaluationID, nil, ev)
	api.Success(w, ev, requestID)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	employeeID, ok := shared.PathID(w, r, "employeeID", nil)
	if !ok {
		return
	}

	rng, err := shared.QueryRange(r, h.now())
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	tally, err := h.Service.Tally(r.Context(), user.OrganizationID, employeeID, rng, shared.QueryMode(r))
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, tally, requestID)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	tasks, err := h.Service.ListTasks(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tasks, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload taskRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	task := evaluation.Task{
		Title:       payload.Title,
		Description: payload.Description,
		Criteria:    payload.Criteria,
		Target:      evaluation.Target{Type: payload.Target.Type, EntityIDs: payload.Target.EntityIDs},
		Active:      payload.Active == nil || *payload.Active,
	}
	for _, wd := range payload.Weekdays {
		task.Weekdays = append(task.Weekdays, time.Weekday(wd))
	}

	created, err := h.Service.CreateTask(r.Context(), user.OrganizationID, task)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionTaskCreate, "evaluation_task", created.ID, nil, created)
	api.Created(w, created, requestID)
}
