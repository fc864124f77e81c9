package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
	"perfboard/internal/transport/http/api"
)

// FailDomain writes the envelope matching a domain failure.
func FailDomain(w http.ResponseWriter, err error, requestID string) {
	var (
		validation  *domainerr.ValidationError
		incomplete  *domainerr.IncompleteDataError
		notEligible *domainerr.NotEligibleError
		transition  *domainerr.InvalidTransitionError
		awardAbsent *domainerr.AwardNotFoundError
	)
	switch {
	case errors.As(err, &validation):
		FailValidation(w, requestID, []ValidationIssue{{Field: validation.Field, Reason: validation.Reason}})
	case errors.Is(err, period.ErrInvalidPeriod):
		FailValidation(w, requestID, []ValidationIssue{{Field: "period", Reason: err.Error()}})
	case errors.As(err, &incomplete):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "incomplete_data", incomplete.Error(),
			map[string]any{"employeeId": incomplete.EmployeeID, "missing": incomplete.Missing}, requestID)
	case errors.As(err, &notEligible):
		api.Fail(w, http.StatusForbidden, "not_eligible", notEligible.Error(), requestID)
	case errors.As(err, &transition):
		api.FailWithDetails(w, http.StatusConflict, "invalid_transition", transition.Error(),
			map[string]any{"entity": transition.Entity, "from": transition.From, "to": transition.To}, requestID)
	case errors.As(err, &awardAbsent):
		api.Fail(w, http.StatusNotFound, "not_found", awardAbsent.Error(), requestID)
	case errors.Is(err, domainerr.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, domainerr.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", "resource already exists or changed concurrently", requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	default:
		slog.Error("request failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
