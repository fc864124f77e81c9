package evaluation

import (
	"sort"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/period"
)

type Mode int

const (
	// ModeLive omits missing task-days; used by leaderboards and partial views.
	ModeLive Mode = iota
	// ModeStrict fails when a required task-day has no final evaluation; used when closing bonus payouts.
	ModeStrict
)

type Tally struct {
	EmployeeID string `json:"employeeId"`
	Score      int    `json:"score"`
	Zeros      int    `json:"zeros"`
	Evaluated  int    `json:"evaluated"`
}

// Calculate aggregates the final evaluations of one employee inside rng.
// Drafts and records of other employees or outside the range never contribute.
func Calculate(employeeID string, rng period.DateRange, evals []Evaluation, required []TaskDay, mode Mode) (Tally, error) {
	tally := Tally{EmployeeID: employeeID}
	seen := make(map[string]struct{}, len(evals))
	for _, ev := range evals {
		if ev.EmployeeID != employeeID || ev.IsDraft || !rng.Contains(ev.Date) {
			continue
		}
		tally.Score += ev.Score
		if ev.Score == ScoreZero {
			tally.Zeros++
		}
		tally.Evaluated++
		seen[TaskDay{TaskID: ev.TaskID, Date: ev.Date}.Key()] = struct{}{}
	}

	if mode != ModeStrict {
		return tally, nil
	}
	var missing []string
	for _, slot := range required {
		if !rng.Contains(slot.Date) {
			continue
		}
		if _, ok := seen[slot.Key()]; !ok {
			missing = append(missing, slot.Key())
		}
	}
	if len(missing) > 0 {
		return Tally{}, &domainerr.IncompleteDataError{EmployeeID: employeeID, Missing: missing}
	}
	return tally, nil
}

// RequiredTaskDays enumerates the slots emp must be evaluated on inside rng,
// ordered by day then task id. Days before admission are never required.
func RequiredTaskDays(tasks []Task, emp employees.Employee, rng period.DateRange) []TaskDay {
	applicable := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Active && task.AppliesTo(emp) {
			applicable = append(applicable, task)
		}
	}
	sort.Slice(applicable, func(i, j int) bool { return applicable[i].ID < applicable[j].ID })

	var out []TaskDay
	for _, day := range rng.Days() {
		if !emp.AdmittedBy(day) {
			continue
		}
		for _, task := range applicable {
			if task.ScheduledOn(day) {
				out = append(out, TaskDay{TaskID: task.ID, Date: day})
			}
		}
	}
	return out
}
