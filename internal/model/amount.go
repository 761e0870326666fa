package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrOverflow is returned when an arithmetic result leaves the signed 128-bit range.
var ErrOverflow = errors.New("amount: 128-bit overflow")

// ErrDivisionByZero is returned by Quo when the divisor is zero.
var ErrDivisionByZero = errors.New("amount: division by zero")

var (
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minAmount = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Amount is an immutable signed 128-bit integer. The zero value is 0.
// Every operation returns a fresh value; the receiver is never modified.
type Amount struct {
	v *big.Int
}

// NewAmount returns the Amount for an int64.
func NewAmount(n int64) Amount {
	return Amount{v: big.NewInt(n)}
}

// AmountFromBig copies b into an Amount, failing when b is out of range.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	return checked(new(big.Int).Set(b))
}

// ParseAmount parses a base-10 integer string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: invalid integer %q", s)
	}
	return checked(b)
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func checked(b *big.Int) (Amount, error) {
	if b.Cmp(maxAmount) > 0 || b.Cmp(minAmount) < 0 {
		return Amount{}, ErrOverflow
	}
	return Amount{v: b}, nil
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// BigInt returns a copy of the underlying value.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.big())
}

// Add returns a+b.
func (a Amount) Add(b Amount) (Amount, error) {
	return checked(new(big.Int).Add(a.big(), b.big()))
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) (Amount, error) {
	return checked(new(big.Int).Sub(a.big(), b.big()))
}

// Mul returns a*b.
func (a Amount) Mul(b Amount) (Amount, error) {
	return checked(new(big.Int).Mul(a.big(), b.big()))
}

// Quo returns a/b truncated toward zero.
func (a Amount) Quo(b Amount) (Amount, error) {
	if b.Sign() == 0 {
		return Amount{}, ErrDivisionByZero
	}
	return checked(new(big.Int).Quo(a.big(), b.big()))
}

// Pow10 returns 10^n.
func Pow10(n uint32) (Amount, error) {
	return checked(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int { return a.big().Sign() }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.Sign() == 0 }

// Cmp compares a and b.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

// Int64 returns the value and whether it fits in an int64.
func (a Amount) Int64() (int64, bool) {
	b := a.big()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

func (a Amount) String() string { return a.big().String() }

// MarshalJSON encodes the value as a decimal string so that no JSON reader
// truncates it to float64 precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
