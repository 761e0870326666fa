package calculator

import (
	"math/big"

	"SalaryHedge/internal/model"
)

// BasisPointScale is the number of basis points in 100%.
const BasisPointScale = 10000

var bpScale = big.NewInt(BasisPointScale)

// DevaluationBP returns the loss of value between a past and a current price,
// in basis points, rounded down:
//
//	0                               if current >= past
//	((past - current) * 10000) / past otherwise
//
// Appreciation never produces a negative figure. past must be positive; the
// product is computed in arbitrary precision so it cannot overflow.
func DevaluationBP(past, current model.Amount) int64 {
	if current.Cmp(past) >= 0 {
		return 0
	}
	p0 := past.BigInt()
	drop := new(big.Int).Sub(p0, current.BigInt())
	drop.Mul(drop, bpScale)
	drop.Quo(drop, p0)
	return drop.Int64()
}

// WindowStart returns now minus daysBack days, or false when the window
// would start before ledger time zero.
func WindowStart(now uint64, daysBack uint32) (uint64, bool) {
	span := uint64(daysBack) * model.SecondsPerDay
	if span > now {
		return 0, false
	}
	return now - span, true
}
