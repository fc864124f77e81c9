package employees

const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
)
