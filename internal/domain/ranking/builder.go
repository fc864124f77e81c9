package ranking

import "sort"

// Build orders candidates by score and the configured tie-breaker and assigns
// ranks 1..N. Entries still tied after tie-breaking keep their input order.
// previous maps employee id to last period's rank and drives the trend.
func Build(candidates []Candidate, settings Settings, previous map[string]int) []Entry {
	if len(candidates) == 0 {
		return []Entry{}
	}
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)

	tie := tieBreaker(settings)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return tie(a, b)
	})

	out := make([]Entry, len(ordered))
	for i, c := range ordered {
		rank := i + 1
		entry := Entry{
			Rank:         rank,
			EmployeeID:   c.EmployeeID,
			Name:         c.Name,
			DepartmentID: c.DepartmentID,
			Score:        c.Score,
			Zeros:        c.Zeros,
			Trend:        TrendStable,
		}
		if prev, ok := previous[c.EmployeeID]; ok && prev > 0 {
			entry.PreviousRank = prev
			entry.Trend = trend(prev, rank)
		}
		out[i] = entry
	}
	return out
}

func tieBreaker(settings Settings) func(a, b Candidate) bool {
	switch settings.TieBreaker {
	case TieBreakAdmissionDate:
		return func(a, b Candidate) bool { return a.AdmissionDate.Before(b.AdmissionDate) }
	case TieBreakManual:
		pos := make(map[string]int, len(settings.ManualOrder))
		for i, id := range settings.ManualOrder {
			pos[id] = i
		}
		return func(a, b Candidate) bool {
			pa, okA := pos[a.EmployeeID]
			pb, okB := pos[b.EmployeeID]
			switch {
			case okA && okB:
				return pa < pb
			case okA:
				return true
			default:
				return false
			}
		}
	default:
		return func(a, b Candidate) bool { return a.Zeros < b.Zeros }
	}
}

func trend(previous, current int) string {
	switch {
	case current < previous:
		return TrendUp
	case current > previous:
		return TrendDown
	}
	return TrendStable
}

// Ranks indexes entries by employee id.
func Ranks(entries []Entry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.EmployeeID] = e.Rank
	}
	return out
}

// VisibleTo trims the leaderboard for a viewer. When the public view is
// disabled, restricted viewers only see their own entry.
func VisibleTo(entries []Entry, settings Settings, viewerEmployeeID string, restricted bool) []Entry {
	if settings.PublicViewEnabled || !restricted {
		return entries
	}
	for _, e := range entries {
		if e.EmployeeID == viewerEmployeeID {
			return []Entry{e}
		}
	}
	return []Entry{}
}
