package shared

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/period"
)

// ParseDate reads YYYY-MM-DD, or an RFC3339 timestamp reduced to its
// calendar day. Blank input yields the zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}, err
		}
	}
	return period.Day(parsed), nil
}

// QueryPeriod reads a YYYY-MM period, defaulting to the month of now.
func QueryPeriod(r *http.Request, key string, now time.Time) (period.Period, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return period.Of(now), nil
	}
	return period.Parse(raw)
}

// QueryRange reads from/to dates. Missing bounds default to the month of now.
func QueryRange(r *http.Request, now time.Time) (period.DateRange, error) {
	q := r.URL.Query()
	current := period.Of(now).Range()
	from, err := ParseDate(strings.TrimSpace(q.Get("from")))
	if err != nil {
		return period.DateRange{}, domainerr.Invalid("from", "must be a valid date in YYYY-MM-DD format")
	}
	to, err := ParseDate(strings.TrimSpace(q.Get("to")))
	if err != nil {
		return period.DateRange{}, domainerr.Invalid("to", "must be a valid date in YYYY-MM-DD format")
	}
	if from.IsZero() {
		from = current.Start
	}
	if to.IsZero() {
		to = current.End
	}
	rng, err := period.NewRange(from, to)
	if err != nil {
		return period.DateRange{}, domainerr.Invalid("to", "must be on or after from")
	}
	return rng, nil
}

func QueryMode(r *http.Request) evaluation.Mode {
	if strict, _ := strconv.ParseBool(r.URL.Query().Get("strict")); strict {
		return evaluation.ModeStrict
	}
	return evaluation.ModeLive
}

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// QueryPage reads limit and offset. Unparseable or out-of-range values fall
// back to the defaults and limit is capped at maxLimit.
func QueryPage(r *http.Request, defaultLimit, maxLimit int) Page {
	q := r.URL.Query()
	page := Page{Limit: defaultLimit}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		page.Limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	return page
}

// SetTotal advertises the unpaginated size of a listing.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
