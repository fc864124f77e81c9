package awards

const (
	PeriodRecurring  = "recorrente"
	PlaceholderPrize = "Prêmio Indefinido"
	AllDepartments   = "all"

	StatusActive   = "active"
	StatusInactive = "inactive"
)
