package pricefeed

import (
	"context"
	"errors"
	"strings"

	"SalaryHedge/internal/model"
)

// ErrDecimalsUnavailable is returned when the oracle cannot report its scale.
var ErrDecimalsUnavailable = errors.New("pricefeed: decimals unavailable")

// Asset identifies a price series on the oracle.
type Asset string

// Feed is the oracle contract consumed by the engine. A false second return
// value means the oracle has no data for the request; that is an expected
// outcome, not an error. Errors are reserved for transport failures.
type Feed interface {
	LatestPrice(ctx context.Context, asset Asset) (model.PriceData, bool, error)
	PriceAt(ctx context.Context, asset Asset, timestamp uint64) (model.PriceData, bool, error)
	Decimals(ctx context.Context) (uint32, error)
	Name() string
}

// Resolver maps a currency code to the oracle asset that prices it.
type Resolver interface {
	Resolve(code string) (Asset, bool)
	Currencies() []string
}

// StaticResolver is a Resolver over a fixed allow-list.
type StaticResolver struct {
	codes  []string
	assets map[string]Asset
}

// CurrencyAsset binds a currency code to its oracle asset.
type CurrencyAsset struct {
	Code  string
	Asset Asset
}

// NewStaticResolver builds a resolver preserving the given order. An empty
// asset id defaults to the currency code itself.
func NewStaticResolver(entries []CurrencyAsset) *StaticResolver {
	r := &StaticResolver{assets: make(map[string]Asset, len(entries))}
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			continue
		}
		if _, dup := r.assets[code]; dup {
			continue
		}
		asset := e.Asset
		if asset == "" {
			asset = Asset(code)
		}
		r.codes = append(r.codes, code)
		r.assets[code] = asset
	}
	return r
}

// Resolve returns the asset for code. Codes are case-sensitive, like the
// ledger symbols they stand in for.
func (r *StaticResolver) Resolve(code string) (Asset, bool) {
	a, ok := r.assets[code]
	return a, ok
}

// Currencies returns a copy of the allow-list.
func (r *StaticResolver) Currencies() []string {
	return append([]string(nil), r.codes...)
}
