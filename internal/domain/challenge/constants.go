package challenge

const (
	StatusDraft      = "draft"
	StatusScheduled  = "scheduled"
	StatusActive     = "active"
	StatusEvaluating = "evaluating"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"

	ParticipationMandatory = "Obrigatório"
	ParticipationOptional  = "Opcional"

	EligibleAll        = "all"
	EligibleDepartment = "department"
	EligibleRole       = "role"
	EligibleIndividual = "individual"

	ParticipationPending   = "pending"
	ParticipationAccepted  = "accepted"
	ParticipationSubmitted = "submitted"
	ParticipationApproved  = "approved"
	ParticipationRejected  = "rejected"

	EntityChallenge     = "challenge"
	EntityParticipation = "participation"
)

var statusOrder = []string{StatusDraft, StatusScheduled, StatusActive, StatusEvaluating, StatusCompleted, StatusArchived}
