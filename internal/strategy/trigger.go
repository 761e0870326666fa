package strategy

import (
	"math"

	"SalaryHedge/internal/calculator"
	"SalaryHedge/internal/model"
)

// Cooldown is the minimum ledger time between two automatic conversions.
const Cooldown = model.SecondsPerWeek

// LookBack is the window over which automatic-trigger devaluation is measured.
const LookBack = model.SecondsPerWeek

// Decision is the result of evaluating the trigger policy.
type Decision struct {
	DevaluationBP int64
	Fire          bool
	Reason        model.SalaryReason
}

// InCooldown reports whether now is still inside the cooldown that follows
// the last conversion. A never-converted user has last_conversion 0, so the
// gate only opens once ledger time passes one week.
func InCooldown(cfg model.UserConfig, now uint64) bool {
	if cfg.LastConversion > math.MaxUint64-Cooldown {
		return true
	}
	return now < cfg.LastConversion+Cooldown
}

// CooldownDecision is returned when the cooldown gate short-circuits.
func CooldownDecision() Decision {
	return Decision{Reason: model.ReasonCooldown}
}

// Evaluate compares the devaluation between the week-ago price and the
// current price with the user's threshold. The threshold is inclusive.
func Evaluate(cfg model.UserConfig, weekAgo, current model.PriceData) Decision {
	bp := calculator.DevaluationBP(weekAgo.Price, current.Price)
	d := Decision{DevaluationBP: bp, Reason: model.ReasonBelowThreshold}
	if bp >= cfg.ThresholdBP {
		d.Fire = true
		d.Reason = model.ReasonConverted
	}
	return d
}
