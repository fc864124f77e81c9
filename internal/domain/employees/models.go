package employees

import (
	"time"

	"perfboard/internal/domain/period"
)

type Employee struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organizationId"`
	UserID          string     `json:"userId,omitempty"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	DepartmentID    string     `json:"departmentId"`
	Role            string     `json:"role"`
	AdmissionDate   time.Time  `json:"admissionDate"`
	ProbationEndsAt *time.Time `json:"probationEndsAt,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// InProbation reports whether asOf falls on or before the probation end day.
func (e Employee) InProbation(asOf time.Time) bool {
	if e.ProbationEndsAt == nil {
		return false
	}
	return !period.Day(asOf).After(period.Day(*e.ProbationEndsAt))
}

func (e Employee) Active() bool {
	return e.Status == StatusActive
}

// AdmittedBy reports whether the employee had started on or before day.
func (e Employee) AdmittedBy(day time.Time) bool {
	if e.AdmissionDate.IsZero() {
		return true
	}
	return !period.Day(e.AdmissionDate).After(period.Day(day))
}

// Directory indexes employees by id.
type Directory map[string]Employee

func NewDirectory(list []Employee) Directory {
	dir := make(Directory, len(list))
	for _, emp := range list {
		dir[emp.ID] = emp
	}
	return dir
}
