package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SalaryHedge/internal/model"
)

func TestDevaluationBP(t *testing.T) {
	tests := []struct {
		name    string
		past    int64
		current int64
		want    int64
	}{
		{"weekly drop", 100, 95, 500},
		{"appreciation clamps to zero", 100, 101, 0},
		{"unchanged", 100, 100, 0},
		{"rounds down", 3, 2, 3333},
		{"total loss", 100, 0, 10000},
		{"one basis point", 10000, 9999, 1},
		{"below one basis point", 100000, 99999, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DevaluationBP(model.NewAmount(tt.past), model.NewAmount(tt.current))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDevaluationBP_NoOverflowNearRangeLimit(t *testing.T) {
	past := model.MustAmount("170141183460469231731687303715884105727")
	current := model.MustAmount("85070591730234615865843651857942052863")
	assert.Equal(t, int64(5000), DevaluationBP(past, current))
}

func TestDevaluationBP_Bounds(t *testing.T) {
	for p0 := int64(1); p0 <= 60; p0++ {
		for p1 := int64(1); p1 <= 60; p1++ {
			got := DevaluationBP(model.NewAmount(p0), model.NewAmount(p1))
			if p1 >= p0 {
				assert.Zero(t, got, "p0=%d p1=%d", p0, p1)
				continue
			}
			assert.Equal(t, (p0-p1)*10000/p0, got, "p0=%d p1=%d", p0, p1)
			assert.GreaterOrEqual(t, got, int64(0))
			assert.LessOrEqual(t, got, int64(10000))
		}
	}
}

func TestWindowStart(t *testing.T) {
	start, ok := WindowStart(1_000_000, 7)
	assert.True(t, ok)
	assert.Equal(t, uint64(1_000_000-604800), start)

	start, ok = WindowStart(86400, 1)
	assert.True(t, ok)
	assert.Zero(t, start)

	_, ok = WindowStart(86399, 1)
	assert.False(t, ok)
}
