package model

// Ledger time constants, in seconds.
const (
	SecondsPerDay  uint64 = 86400
	SecondsPerWeek uint64 = 7 * SecondsPerDay
)

// PriceData is a single oracle observation in the feed's fixed-point scale.
type PriceData struct {
	Price     Amount `json:"price"`
	Timestamp uint64 `json:"timestamp"`
}

// Valid reports whether the price can be used as a divisor.
func (p PriceData) Valid() bool { return p.Price.Sign() > 0 }
