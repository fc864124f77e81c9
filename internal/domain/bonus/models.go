package bonus

import "perfboard/internal/domain/domainerr"

// Config is the organization-wide bonus policy.
type Config struct {
	BaseValue float64 `json:"baseValue"`
	ZeroLimit int     `json:"zeroLimit"`
}

func (c Config) Validate() error {
	if c.BaseValue < 0 {
		return domainerr.Invalid("baseValue", "must not be negative")
	}
	if c.ZeroLimit < 0 {
		return domainerr.Invalid("zeroLimit", "must not be negative")
	}
	return nil
}

type Result struct {
	EmployeeID string  `json:"employeeId"`
	Name       string  `json:"name,omitempty"`
	Score      int     `json:"score"`
	Zeros      int     `json:"zeros"`
	Eligible   bool    `json:"eligible"`
	Amount     float64 `json:"amount"`
}

// Evaluate applies the zero limit. Reaching the limit exactly is still eligible.
func Evaluate(zeros int, cfg Config) Result {
	eligible := zeros <= cfg.ZeroLimit
	amount := 0.0
	if eligible {
		amount = cfg.BaseValue
	}
	return Result{Zeros: zeros, Eligible: eligible, Amount: amount}
}
