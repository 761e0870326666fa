package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"SalaryHedge/internal/model"
)

func testConfig() model.UserConfig {
	return model.UserConfig{
		User:             "alice",
		LocalCurrency:    "ARS",
		TargetPercentage: 20,
		ThresholdBP:      200,
		LastConversion:   1700000000,
		TotalProtected:   model.NewAmount(210),
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.95", FormatUnits(model.NewAmount(95), 2))
	assert.Equal(t, "12345", FormatUnits(model.NewAmount(12345), 0))
	assert.Equal(t, "-1.5", FormatUnits(model.NewAmount(-15), 1))
	assert.Equal(t, "1700.5", FormatUnits(model.MustAmount("17005000000000000"), 13))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$2.10", FormatMoney(model.NewAmount(210), "USD"))
	assert.Equal(t, "1.00 ZZZ", FormatMoney(model.NewAmount(100), "ZZZ"))

	huge := model.MustAmount("170141183460469231731687303715884105727")
	assert.Equal(t, "1701411834604692317316873037158841057.27 USD", FormatMoney(huge, "USD"))
}

func TestFormatBP(t *testing.T) {
	assert.Equal(t, "5.00%", FormatBP(500))
	assert.Equal(t, "0.00%", FormatBP(0))
	assert.Equal(t, "10.00%", FormatBP(1000))
}

func TestFormatConversionAlert(t *testing.T) {
	msg := FormatConversionAlert(testConfig(), model.ConversionEvent{
		Timestamp:    1700000000,
		LocalAmount:  model.NewAmount(200),
		USDAmount:    model.NewAmount(210),
		ExchangeRate: model.NewAmount(95),
		Trigger:      model.TriggerAutomatic,
	}, 2)
	assert.Contains(t, msg, "Automatic conversion")
	assert.Contains(t, msg, "Received: $2.10")
	assert.Contains(t, msg, "Rate: 0.95 ARS/USD")
	assert.Contains(t, msg, "2023-11-14 22:13 UTC")
}

func TestFormatSalaryOutcome(t *testing.T) {
	cfg := testConfig()
	msg := FormatSalaryOutcome(cfg, model.NewAmount(1000), model.SalaryOutcome{Reason: model.ReasonCooldown})
	assert.Contains(t, msg, "cooldown")

	msg = FormatSalaryOutcome(cfg, model.NewAmount(1000), model.SalaryOutcome{
		Reason:        model.ReasonBelowThreshold,
		DevaluationBP: 150,
	})
	assert.Contains(t, msg, "devaluation 1.50% below threshold 2.00%")

	evt := model.ConversionEvent{USDAmount: model.NewAmount(210)}
	msg = FormatSalaryOutcome(cfg, model.NewAmount(1000), model.SalaryOutcome{
		Triggered:        true,
		Reason:           model.ReasonConverted,
		DevaluationBP:    500,
		ConversionAmount: model.NewAmount(200),
		Event:            &evt,
	})
	assert.Contains(t, msg, "devaluation 5.00%")
	assert.Contains(t, msg, "Received: $2.10")
}

func TestFormatMetrics(t *testing.T) {
	cfg := testConfig()
	msg := FormatMetrics(cfg, model.ProtectionMetrics{
		TotalProtected:        model.NewAmount(210),
		CurrencyDevaluationBP: 500,
		DaysTracked:           7,
		CurrentRate:           model.NewAmount(95),
	}, 2)
	assert.Contains(t, msg, "ARS devaluation (7d): 5.00%")
	assert.Contains(t, msg, "Above your 2.00% threshold")

	msg = FormatMetrics(cfg, model.ProtectionMetrics{DaysTracked: 7}, 2)
	assert.NotContains(t, msg, "Above")
}

func TestFormatConfig(t *testing.T) {
	cfg := testConfig()
	msg := FormatConfig(cfg)
	assert.Contains(t, msg, "Target: 20% of each salary")
	assert.Contains(t, msg, "Threshold: 2.00% (200 bp)")

	cfg.LastConversion = 0
	assert.Contains(t, FormatConfig(cfg), "Last conversion: never")
}

func TestFormatHistory(t *testing.T) {
	cfg := testConfig()
	assert.Contains(t, FormatHistory(cfg, nil, 5), "No conversions yet")

	events := []model.ConversionEvent{
		{Timestamp: 1, USDAmount: model.NewAmount(100), Trigger: model.TriggerManual},
		{Timestamp: 2, USDAmount: model.NewAmount(200), Trigger: model.TriggerAutomatic},
		{Timestamp: 3, USDAmount: model.NewAmount(300), Trigger: model.TriggerAutomatic},
	}
	msg := FormatHistory(cfg, events, 2)
	assert.Contains(t, msg, "$3.00")
	assert.Contains(t, msg, "$2.00")
	assert.NotContains(t, msg, "$1.00")
	assert.Contains(t, msg, "… 1 older")
	assert.Less(t, strings.Index(msg, "$3.00"), strings.Index(msg, "$2.00"), "newest first")

	assert.Contains(t, FormatHistory(cfg, events, 0), "$1.00")
}

func TestFormatCurrencies(t *testing.T) {
	assert.Equal(t, "💱 Supported currencies: ARS, BRL, PEN", FormatCurrencies([]string{"ARS", "BRL", "PEN"}))
	assert.Equal(t, "No currencies supported.", FormatCurrencies(nil))
}
