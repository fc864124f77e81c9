package ranking

import (
	"time"

	"perfboard/internal/domain/domainerr"
)

// Settings is the per-organization leaderboard configuration.
type Settings struct {
	TieBreaker             string   `json:"tieBreaker"`
	IncludeProbation       bool     `json:"includeProbation"`
	PublicViewEnabled      bool     `json:"publicViewEnabled"`
	NotificationLevel      string   `json:"notificationLevel"`
	IncludeChallengePoints bool     `json:"includeChallengePoints"`
	ManualOrder            []string `json:"manualOrder,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		TieBreaker:        TieBreakZeros,
		PublicViewEnabled: true,
		NotificationLevel: NotifyAll,
	}
}

func (s Settings) Validate() error {
	switch s.TieBreaker {
	case TieBreakZeros, TieBreakAdmissionDate, TieBreakManual:
	default:
		return domainerr.Invalid("tieBreaker", "must be zeros, admissionDate or manual")
	}
	switch s.NotificationLevel {
	case NotifyAll, NotifyImportant, NotifyNone:
	default:
		return domainerr.Invalid("notificationLevel", "must be all, important or none")
	}
	seen := make(map[string]struct{}, len(s.ManualOrder))
	for _, id := range s.ManualOrder {
		if _, dup := seen[id]; dup {
			return domainerr.Invalid("manualOrder", "lists employee "+id+" twice")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Candidate is one employee's scored standing before ordering.
type Candidate struct {
	EmployeeID    string
	Name          string
	DepartmentID  string
	Score         int
	Zeros         int
	AdmissionDate time.Time
}

type Entry struct {
	Rank         int    `json:"rank"`
	EmployeeID   string `json:"employeeId"`
	Name         string `json:"name,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	Score        int    `json:"score"`
	Zeros        int    `json:"zeros"`
	Trend        string `json:"trend"`
	PreviousRank int    `json:"previousRank,omitempty"`
}
