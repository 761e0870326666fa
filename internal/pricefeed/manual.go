package pricefeed

import (
	"context"
	"sort"
	"sync"

	"SalaryHedge/internal/model"
)

// ManualFeed serves controllable fixed observations for development and testing.
type ManualFeed struct {
	mu       sync.RWMutex
	decimals uint32
	series   map[Asset][]model.PriceData
	noScale  bool
}

// NewManualFeed creates an empty feed with the given decimal scale.
func NewManualFeed(decimals uint32) *ManualFeed {
	return &ManualFeed{decimals: decimals, series: make(map[Asset][]model.PriceData)}
}

func (m *ManualFeed) Name() string { return "manual" }

// Set records a price for asset at timestamp, replacing any observation
// already stored at that exact time.
func (m *ManualFeed) Set(asset Asset, timestamp uint64, price model.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obs := m.series[asset]
	i := sort.Search(len(obs), func(i int) bool { return obs[i].Timestamp >= timestamp })
	pd := model.PriceData{Price: price, Timestamp: timestamp}
	if i < len(obs) && obs[i].Timestamp == timestamp {
		obs[i] = pd
		return
	}
	obs = append(obs, model.PriceData{})
	copy(obs[i+1:], obs[i:])
	obs[i] = pd
	m.series[asset] = obs
}

// SetDecimalsUnavailable makes Decimals fail, simulating an oracle that
// cannot report its scale.
func (m *ManualFeed) SetDecimalsUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noScale = unavailable
}

// Clear drops every observation for asset.
func (m *ManualFeed) Clear(asset Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.series, asset)
}

func (m *ManualFeed) LatestPrice(_ context.Context, asset Asset) (model.PriceData, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obs := m.series[asset]
	if len(obs) == 0 {
		return model.PriceData{}, false, nil
	}
	return obs[len(obs)-1], true, nil
}

// PriceAt returns the most recent observation at or before timestamp.
func (m *ManualFeed) PriceAt(_ context.Context, asset Asset, timestamp uint64) (model.PriceData, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obs := m.series[asset]
	i := sort.Search(len(obs), func(i int) bool { return obs[i].Timestamp > timestamp })
	if i == 0 {
		return model.PriceData{}, false, nil
	}
	return obs[i-1], true, nil
}

func (m *ManualFeed) Decimals(_ context.Context) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.noScale {
		return 0, ErrDecimalsUnavailable
	}
	return m.decimals, nil
}
