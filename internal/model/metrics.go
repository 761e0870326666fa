package model

// ProtectionMetrics is a read-only snapshot computed on request.
type ProtectionMetrics struct {
	TotalProtected        Amount `json:"total_protected"`
	CurrencyDevaluationBP int64  `json:"currency_devaluation_bp"`
	DaysTracked           uint32 `json:"days_tracked"`
	CurrentRate           Amount `json:"current_rate"`
}
