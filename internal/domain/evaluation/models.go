package evaluation

import (
	"slices"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/period"
)

type Evaluation struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	EmployeeID     string     `json:"employeeId"`
	TaskID         string     `json:"taskId"`
	Date           time.Time  `json:"date"`
	Score          int        `json:"score"`
	Justification  string     `json:"justification,omitempty"`
	EvidenceURL    string     `json:"evidenceUrl,omitempty"`
	EvaluatorID    string     `json:"evaluatorId"`
	IsDraft        bool       `json:"isDraft"`
	LastEdited     *time.Time `json:"lastEdited,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Validate enforces the record invariants, notably that a zero carries a justification.
func (e Evaluation) Validate() error {
	if strings.TrimSpace(e.EmployeeID) == "" {
		return domainerr.Invalid("employeeId", "is required")
	}
	if strings.TrimSpace(e.TaskID) == "" {
		return domainerr.Invalid("taskId", "is required")
	}
	if e.Date.IsZero() {
		return domainerr.Invalid("date", "is required")
	}
	if strings.TrimSpace(e.EvaluatorID) == "" {
		return domainerr.Invalid("evaluatorId", "is required")
	}
	if e.Score != ScoreZero && e.Score != ScoreFull {
		return domainerr.Invalid("score", "must be 0 or 10")
	}
	if e.Score == ScoreZero && strings.TrimSpace(e.Justification) == "" {
		return domainerr.Invalid("justification", "is required when score is 0")
	}
	return nil
}

type Target struct {
	Type      string   `json:"type"`
	EntityIDs []string `json:"entityIds,omitempty"`
}

type Task struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Criteria       string         `json:"criteria,omitempty"`
	Target         Target         `json:"target"`
	Weekdays       []time.Weekday `json:"weekdays,omitempty"`
	Active         bool           `json:"active"`
}

var defaultWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// AppliesTo reports whether emp is in the task's assignment target.
func (t Task) AppliesTo(emp employees.Employee) bool {
	switch t.Target.Type {
	case TargetOrganization, "":
		return true
	case TargetRole:
		return slices.Contains(t.Target.EntityIDs, emp.Role)
	case TargetDepartment:
		return slices.Contains(t.Target.EntityIDs, emp.DepartmentID)
	case TargetIndividual:
		return slices.Contains(t.Target.EntityIDs, emp.ID)
	}
	return false
}

// ScheduledOn reports whether the task is evaluated on the weekday of day.
func (t Task) ScheduledOn(day time.Time) bool {
	weekdays := t.Weekdays
	if len(weekdays) == 0 {
		weekdays = defaultWeekdays
	}
	return slices.Contains(weekdays, day.Weekday())
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return domainerr.Invalid("title", "is required")
	}
	switch t.Target.Type {
	case TargetOrganization:
	case TargetRole, TargetDepartment, TargetIndividual:
		if len(t.Target.EntityIDs) == 0 {
			return domainerr.Invalid("target.entityIds", "is required for "+t.Target.Type+" targets")
		}
	default:
		return domainerr.Invalid("target.type", "must be organization, role, department or individual")
	}
	for _, wd := range t.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return domainerr.Invalid("weekdays", "must be between 0 and 6")
		}
	}
	return nil
}

// TaskDay is one (task, day) slot an employee is expected to be evaluated on.
type TaskDay struct {
	TaskID string
	Date   time.Time
}

func (d TaskDay) Key() string {
	return d.TaskID + "@" + period.Day(d.Date).Format("2006-01-02")
}

// Patch carries the editable fields of a recorded evaluation.
type Patch struct {
	Score         *int
	Justification *string
	EvidenceURL   *string
}
