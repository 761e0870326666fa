package model

// SalaryReason explains the result of a salary run.
type SalaryReason string

const (
	ReasonCooldown       SalaryReason = "cooldown"
	ReasonBelowThreshold SalaryReason = "below_threshold"
	ReasonConverted      SalaryReason = "converted"
)

// SalaryOutcome describes what a salary run decided.
type SalaryOutcome struct {
	Triggered        bool
	Reason           SalaryReason
	DevaluationBP    int64
	ConversionAmount Amount
	Event            *ConversionEvent // nil unless Triggered
}
