package ranking

const (
	TieBreakZeros         = "zeros"
	TieBreakAdmissionDate = "admissionDate"
	TieBreakManual        = "manual"

	NotifyAll       = "all"
	NotifyImportant = "important"
	NotifyNone      = "none"

	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)
