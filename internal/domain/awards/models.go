package awards

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
)

// PositionValue overrides the flat award value for one winning position.
type PositionValue struct {
	Monetary    *float64 `json:"monetary,omitempty"`
	NonMonetary string   `json:"nonMonetary,omitempty"`
}

type Award struct {
	ID                  string   `json:"id"`
	OrganizationID      string   `json:"organizationId"`
	Title               string   `json:"title"`
	Description         string   `json:"description,omitempty"`
	MonetaryValue       *float64 `json:"monetaryValue,omitempty"`
	NonMonetaryValue    string   `json:"nonMonetaryValue,omitempty"`
	Period              string   `json:"period"`
	WinnerCount         int      `json:"winnerCount"`
	EligibleDepartments []string `json:"eligibleDepartments"`
	Status              string   `json:"status"`
	IsRecurring         bool     `json:"isRecurring"`
	SpecificMonth       string   `json:"specificMonth,omitempty"`
	// ValuesPerPosition is indexed by position-1.
	ValuesPerPosition []PositionValue `json:"valuesPerPosition,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func (a Award) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return domainerr.Invalid("title", "is required")
	}
	if a.WinnerCount < 1 {
		return domainerr.Invalid("winnerCount", "must be at least 1")
	}
	if a.Period != PeriodRecurring {
		if _, err := period.Parse(a.Period); err != nil {
			return domainerr.Invalid("period", "must be recorrente or YYYY-MM")
		}
		if a.IsRecurring {
			return domainerr.Invalid("isRecurring", "requires period recorrente")
		}
	}
	if a.SpecificMonth != "" {
		if _, _, ok := parseSpecificMonth(a.SpecificMonth); !ok {
			return domainerr.Invalid("specificMonth", "must be YYYY-MM or a month number")
		}
	}
	if a.Status != StatusActive && a.Status != StatusInactive {
		return domainerr.Invalid("status", "must be active or inactive")
	}
	if len(a.ValuesPerPosition) > a.WinnerCount {
		return domainerr.Invalid("valuesPerPosition", "has more positions than winnerCount")
	}
	return nil
}

// MatchesPeriod reports whether the award is due for p.
func (a Award) MatchesPeriod(p period.Period) bool {
	if a.SpecificMonth != "" {
		year, month, ok := parseSpecificMonth(a.SpecificMonth)
		if !ok || month != p.Month || (year != 0 && year != p.Year) {
			return false
		}
	}
	switch {
	case a.Period == PeriodRecurring:
		return true
	case a.Period == "":
		return a.IsRecurring
	}
	// A literal period only ever matches itself, whatever IsRecurring says.
	parsed, err := period.Parse(a.Period)
	return err == nil && parsed == p
}

// parseSpecificMonth accepts "YYYY-MM" or a bare month number; year is 0 for the latter.
func parseSpecificMonth(value string) (int, time.Month, bool) {
	if p, err := period.Parse(value); err == nil {
		return p.Year, p.Month, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > 12 {
		return 0, 0, false
	}
	return 0, time.Month(n), true
}

// AllowsDepartment reports whether employees of dept can win.
func (a Award) AllowsDepartment(dept string) bool {
	if len(a.EligibleDepartments) == 0 {
		return true
	}
	return slices.Contains(a.EligibleDepartments, AllDepartments) || slices.Contains(a.EligibleDepartments, dept)
}

// Prize walks the payout chain for a 1-based position. Non-positive amounts
// and blank descriptions count as absent.
func (a Award) Prize(position int) (string, *float64) {
	if position >= 1 && position <= len(a.ValuesPerPosition) {
		pv := a.ValuesPerPosition[position-1]
		if present(pv.Monetary) {
			return FormatBRL(*pv.Monetary), pv.Monetary
		}
		if strings.TrimSpace(pv.NonMonetary) != "" {
			return pv.NonMonetary, nil
		}
	}
	if present(a.MonetaryValue) {
		return FormatBRL(*a.MonetaryValue), a.MonetaryValue
	}
	if strings.TrimSpace(a.NonMonetaryValue) != "" {
		return a.NonMonetaryValue, nil
	}
	return PlaceholderPrize, nil
}

func present(v *float64) bool {
	return v != nil && *v > 0
}

type Winner struct {
	Rank         int      `json:"rank"`
	EmployeeID   string   `json:"employeeId"`
	EmployeeName string   `json:"employeeName"`
	Prize        string   `json:"prize"`
	Amount       *float64 `json:"amount,omitempty"`
}

// HistoryEntry is the recorded outcome of one award for one period.
type HistoryEntry struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organizationId"`
	AwardID          string    `json:"awardId"`
	Period           string    `json:"period"`
	AwardTitle       string    `json:"awardTitle"`
	Winners          []Winner  `json:"winners"`
	Notes            string    `json:"notes,omitempty"`
	DeliveryPhotoURL string    `json:"deliveryPhotoUrl,omitempty"`
	CertificateURL   string    `json:"certificateUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
