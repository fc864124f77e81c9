package employeeshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/employees"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, orgID string) ([]employees.Employee, error)
	Get(ctx context.Context, orgID, employeeID string) (employees.Employee, error)
	Create(ctx context.Context, emp employees.Employee) (string, error)
}

// Accounts creates the login bound to a new employee.
type Accounts interface {
	CreateUser(ctx context.Context, orgID, email, password, role string) (string, error)
}

type Handler struct {
	Service  Service
	Accounts Accounts
	Perms    middleware.PermissionStore
	Audit    shared.Auditor
}

func NewHandler(service Service, accounts Accounts, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Accounts: accounts, Perms: perms, Audit: auditor}
}

type accountRequest struct {
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_admin admin evaluator employee"`
}

type createEmployeeRequest struct {
	Name            string          `json:"name" validate:"required"`
	Email           string          `json:"email" validate:"omitempty,email"`
	DepartmentID    string          `json:"departmentId"`
	Role            string          `json:"role"`
	AdmissionDate   string          `json:"admissionDate" validate:"required"`
	ProbationEndsAt string          `json:"probationEndsAt"`
	Account         *accountRequest `json:"account"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/employees", h.handleList)
	r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/employees", h.handleCreate)
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/employees/{employeeID}", h.handleGet)
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
	shared.SetTotal(w, len(list))
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	employeeID, ok := shared.PathID(w, r, "employeeID", nil)
	if !ok {
		return
	}

	emp, err := h.Service.Get(r.Context(), user.OrganizationID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	var payload createEmployeeRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	admission, _ := v.Date("admissionDate", payload.AdmissionDate)
	var probation *time.Time
	if payload.ProbationEndsAt != "" {
		if ends, ok := v.Date("probationEndsAt", payload.ProbationEndsAt); ok {
			probation = &ends
		}
	}
	if payload.Account != nil && payload.Email == "" {
		v.Add("email", "is required when an account is requested")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp := employees.Employee{
		OrganizationID:  user.OrganizationID,
		Name:            payload.Name,
		Email:           payload.Email,
		DepartmentID:    payload.DepartmentID,
		Role:            payload.Role,
		AdmissionDate:   admission,
		ProbationEndsAt: probation,
		Status:          employees.StatusActive,
	}
	if payload.Account != nil {
		if h.Accounts == nil {
			api.Fail(w, http.StatusNotImplemented, "accounts_unavailable", "account creation is not available", middleware.GetRequestID(r.Context()))
			return
		}
		userID, err := h.Accounts.CreateUser(r.Context(), user.OrganizationID, payload.Email, payload.Account.Password, payload.Account.Role)
		if err != nil {
			shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
			return
		}
		emp.UserID = userID
	}

	id, err := h.Service.Create(r.Context(), emp)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	emp.ID = id

	shared.Audit(r, h.Audit, user, audit.ActionEmployeeCreate, "employee", id, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}
