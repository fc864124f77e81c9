// Package domainerr holds the typed failures shared by the incentive engine.
// Every operation that returns one of these leaves its inputs untouched.
package domainerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists or changed concurrently")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IncompleteDataError is raised by strict scoring when required task-days
// have no final evaluation. Missing holds "taskID@YYYY-MM-DD" keys.
type IncompleteDataError struct {
	EmployeeID string
	Missing    []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("employee %s has %d unevaluated task-days: %s", e.EmployeeID, len(e.Missing), strings.Join(e.Missing, ", "))
}

type NotEligibleError struct {
	ChallengeID string
	EmployeeID  string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("employee %s is not eligible for challenge %s", e.EmployeeID, e.ChallengeID)
}

type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

type AwardNotFoundError struct {
	AwardID string
}

func (e *AwardNotFoundError) Error() string {
	return fmt.Sprintf("award %s not found", e.AwardID)
}
