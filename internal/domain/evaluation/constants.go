package evaluation

const (
	ScoreZero = 0
	ScoreFull = 10

	TargetOrganization = "organization"
	TargetRole         = "role"
	TargetDepartment   = "department"
	TargetIndividual   = "individual"
)
