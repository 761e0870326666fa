package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"SalaryHedge/internal/model"
)

func price(p int64) model.PriceData {
	return model.PriceData{Price: model.NewAmount(p)}
}

func TestInCooldown(t *testing.T) {
	cfg := model.UserConfig{LastConversion: 1_000_000}

	assert.True(t, InCooldown(cfg, 1_000_000))
	assert.True(t, InCooldown(cfg, 1_000_000+604799))
	assert.False(t, InCooldown(cfg, 1_000_000+604800))
}

func TestInCooldown_NeverConverted(t *testing.T) {
	cfg := model.UserConfig{}
	assert.True(t, InCooldown(cfg, 604799))
	assert.False(t, InCooldown(cfg, 604800))
}

func TestInCooldown_Saturates(t *testing.T) {
	cfg := model.UserConfig{LastConversion: math.MaxUint64 - 10}
	assert.True(t, InCooldown(cfg, math.MaxUint64))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		threshold int64
		weekAgo   int64
		current   int64
		wantBP    int64
		wantFire  bool
	}{
		{"fires above threshold", 200, 100, 95, 500, true},
		{"fires at threshold", 500, 100, 95, 500, true},
		{"below threshold", 501, 100, 95, 500, false},
		{"appreciation never fires", 50, 100, 101, 0, false},
		{"flat never fires", 50, 100, 100, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.UserConfig{ThresholdBP: tt.threshold}
			d := Evaluate(cfg, price(tt.weekAgo), price(tt.current))
			assert.Equal(t, tt.wantBP, d.DevaluationBP)
			assert.Equal(t, tt.wantFire, d.Fire)
			if tt.wantFire {
				assert.Equal(t, model.ReasonConverted, d.Reason)
			} else {
				assert.Equal(t, model.ReasonBelowThreshold, d.Reason)
			}
		})
	}
}
