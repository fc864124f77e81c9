package jobshandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/period"
	"perfboard/internal/platform/jobs"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

// Runner executes a job synchronously and records the run.
type Runner interface {
	RunNow(ctx context.Context, jobType, orgID string, run func(context.Context) (any, error)) (any, error)
}

type Handler struct {
	Runner  Runner
	Sweeper jobs.ChallengeSweeper
	Closer  jobs.AwardCloser
	Perms   middleware.PermissionStore
}

func NewHandler(runner Runner, sweeper jobs.ChallengeSweeper, closer jobs.AwardCloser, perms middleware.PermissionStore) *Handler {
	return &Handler{Runner: runner, Sweeper: sweeper, Closer: closer, Perms: perms}
}

type closeRequest struct {
	Period string `json:"period" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermChallengesManage, h.Perms)).Post("/challenge-sweep", h.handleSweep)
		r.With(middleware.RequirePermission(auth.PermAwardsManage, h.Perms)).Post("/award-close", h.handleAwardClose)
	})
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	details, err := h.Runner.RunNow(r.Context(), jobs.JobChallengeSweep, user.OrganizationID, func(ctx context.Context) (any, error) {
		moved, err := h.Sweeper.Sweep(ctx, user.OrganizationID)
		return map[string]int{"moved": moved}, err
	})
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, details, requestID)
}

func (h *Handler) handleAwardClose(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload closeRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	p, err := period.Parse(strings.TrimSpace(payload.Period))
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	details, err := h.Runner.RunNow(r.Context(), jobs.JobAwardClose, user.OrganizationID, func(ctx context.Context) (any, error) {
		entries, err := h.Closer.ResolvePeriod(ctx, user.OrganizationID, p)
		return map[string]any{"period": p.String(), "entries": entries}, err
	})
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, details, requestID)
}
