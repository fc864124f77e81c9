package challenge

import (
	"slices"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
)

type Eligibility struct {
	Type      string   `json:"type"`
	EntityIDs []string `json:"entityIds,omitempty"`
}

// Includes reports whether emp may take part.
func (e Eligibility) Includes(emp employees.Employee) bool {
	switch e.Type {
	case EligibleAll:
		return true
	case EligibleDepartment:
		return slices.Contains(e.EntityIDs, emp.DepartmentID)
	case EligibleRole:
		return slices.Contains(e.EntityIDs, emp.Role)
	case EligibleIndividual:
		return slices.Contains(e.EntityIDs, emp.ID)
	}
	return false
}

type Challenge struct {
	ID                string      `json:"id"`
	OrganizationID    string      `json:"organizationId"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	Category          string      `json:"category"`
	PeriodStart       time.Time   `json:"periodStart"`
	PeriodEnd         time.Time   `json:"periodEnd"`
	Points            int         `json:"points"`
	Difficulty        string      `json:"difficulty"`
	ParticipationType string      `json:"participationType"`
	Eligibility       Eligibility `json:"eligibility"`
	EvaluationMetrics []string    `json:"evaluationMetrics,omitempty"`
	Status            string      `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
}

func (c Challenge) Mandatory() bool {
	return c.ParticipationType == ParticipationMandatory
}

func (c Challenge) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return domainerr.Invalid("title", "is required")
	}
	if c.PeriodStart.IsZero() || c.PeriodEnd.IsZero() {
		return domainerr.Invalid("period", "start and end are required")
	}
	if c.PeriodEnd.Before(c.PeriodStart) {
		return domainerr.Invalid("periodEnd", "must not be before periodStart")
	}
	if c.Points <= 0 {
		return domainerr.Invalid("points", "must be positive")
	}
	if c.ParticipationType != ParticipationMandatory && c.ParticipationType != ParticipationOptional {
		return domainerr.Invalid("participationType", "must be Obrigatório or Opcional")
	}
	switch c.Eligibility.Type {
	case EligibleAll:
	case EligibleDepartment, EligibleRole, EligibleIndividual:
		if len(c.Eligibility.EntityIDs) == 0 {
			return domainerr.Invalid("eligibility.entityIds", "is required for "+c.Eligibility.Type+" eligibility")
		}
	default:
		return domainerr.Invalid("eligibility.type", "must be all, department, role or individual")
	}
	return nil
}

type Participation struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	ChallengeID    string     `json:"challengeId"`
	EmployeeID     string     `json:"employeeId"`
	Status         string     `json:"status"`
	Submission     string     `json:"submission,omitempty"`
	Score          *int       `json:"score,omitempty"`
	Feedback       string     `json:"feedback,omitempty"`
	ReviewerID     string     `json:"reviewerId,omitempty"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
}

// Resolved reports whether the participation no longer awaits review.
func (p Participation) Resolved() bool {
	return p.Status != ParticipationSubmitted
}
