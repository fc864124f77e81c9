package awards

import (
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
)

// Candidates keeps the active awards due for p whose departments overlap
// the departments present in the leaderboard.
func Candidates(list []Award, p period.Period, entries []ranking.Entry) []Award {
	var out []Award
	for _, a := range list {
		if a.Status != StatusActive || !a.MatchesPeriod(p) {
			continue
		}
		for _, e := range entries {
			if a.AllowsDepartment(e.DepartmentID) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Resolve picks the winners of a for p. Positions are renumbered inside the
// department-filtered leaderboard; fewer candidates yield fewer winners.
func Resolve(a Award, p period.Period, entries []ranking.Entry) HistoryEntry {
	entry := HistoryEntry{
		OrganizationID: a.OrganizationID,
		AwardID:        a.ID,
		Period:         p.String(),
		AwardTitle:     a.Title,
		Winners:        []Winner{},
	}
	position := 0
	for _, e := range entries {
		if position == a.WinnerCount {
			break
		}
		if !a.AllowsDepartment(e.DepartmentID) {
			continue
		}
		position++
		prize, amount := a.Prize(position)
		entry.Winners = append(entry.Winners, Winner{
			Rank:         position,
			EmployeeID:   e.EmployeeID,
			EmployeeName: e.Name,
			Prize:        prize,
			Amount:       amount,
		})
	}
	return entry
}
