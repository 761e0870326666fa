package notifier

import (
	"fmt"
	"strings"
	"time"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"SalaryHedge/internal/model"
)

const usd = "USD"

// FormatUnits renders a fixed-point amount with the given number of decimals.
func FormatUnits(a model.Amount, decimals uint32) string {
	return decimal.NewFromBigInt(a.BigInt(), -int32(decimals)).String()
}

// FormatMoney renders an amount of minor units in currency code. Codes that
// go-money does not know, and values beyond int64, fall back to a plain
// two-decimal rendering.
func FormatMoney(a model.Amount, code string) string {
	if n, ok := a.Int64(); ok && money.GetCurrency(code) != nil {
		return money.New(n, code).Display()
	}
	return FormatUnits(a, 2) + " " + code
}

// FormatBP renders basis points as a percentage.
func FormatBP(bp int64) string {
	return decimal.New(bp, -2).StringFixed(2) + "%"
}

func ledgerTime(ts uint64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04 UTC")
}

// FormatConversionAlert formats a committed conversion.
func FormatConversionAlert(cfg model.UserConfig, evt model.ConversionEvent, rateDecimals uint32) string {
	var b strings.Builder
	label := "Automatic"
	if evt.Trigger == model.TriggerManual {
		label = "Manual"
	}
	b.WriteString(fmt.Sprintf("🛡 <b>%s conversion</b> | %s\n\n", label, cfg.User))
	b.WriteString(fmt.Sprintf("Converted: %s\n", FormatMoney(evt.LocalAmount, cfg.LocalCurrency)))
	b.WriteString(fmt.Sprintf("Received: %s\n", FormatMoney(evt.USDAmount, usd)))
	b.WriteString(fmt.Sprintf("Rate: %s %s/USD\n", FormatUnits(evt.ExchangeRate, rateDecimals), cfg.LocalCurrency))
	b.WriteString(fmt.Sprintf("Total protected: %s\n", FormatMoney(cfg.TotalProtected, usd)))
	b.WriteString(fmt.Sprintf("Time: %s\n", ledgerTime(evt.Timestamp)))
	return b.String()
}

// FormatSalaryOutcome formats the result of a salary run.
func FormatSalaryOutcome(cfg model.UserConfig, amount model.Amount, out model.SalaryOutcome) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💼 <b>Salary processed</b> | %s\n\n", cfg.User))
	b.WriteString(fmt.Sprintf("Salary: %s\n", FormatMoney(amount, cfg.LocalCurrency)))
	switch out.Reason {
	case model.ReasonCooldown:
		b.WriteString("Decision: cooldown, last conversion less than a week ago\n")
	case model.ReasonBelowThreshold:
		b.WriteString(fmt.Sprintf("Decision: no conversion, devaluation %s below threshold %s\n",
			FormatBP(out.DevaluationBP), FormatBP(cfg.ThresholdBP)))
	case model.ReasonConverted:
		b.WriteString(fmt.Sprintf("Decision: converted %s, devaluation %s\n",
			FormatMoney(out.ConversionAmount, cfg.LocalCurrency), FormatBP(out.DevaluationBP)))
		if out.Event != nil {
			b.WriteString(fmt.Sprintf("Received: %s\n", FormatMoney(out.Event.USDAmount, usd)))
		}
	}
	return b.String()
}

// FormatMetrics formats a protection report.
func FormatMetrics(cfg model.UserConfig, m model.ProtectionMetrics, rateDecimals uint32) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Protection report</b> | %s\n\n", cfg.User))
	b.WriteString(fmt.Sprintf("%s devaluation (%dd): %s\n", cfg.LocalCurrency, m.DaysTracked, FormatBP(m.CurrencyDevaluationBP)))
	b.WriteString(fmt.Sprintf("Current rate: %s %s/USD\n", FormatUnits(m.CurrentRate, rateDecimals), cfg.LocalCurrency))
	b.WriteString(fmt.Sprintf("Total protected: %s\n", FormatMoney(m.TotalProtected, usd)))
	if m.CurrencyDevaluationBP >= cfg.ThresholdBP {
		b.WriteString(fmt.Sprintf("\n⚠️ Above your %s threshold\n", FormatBP(cfg.ThresholdBP)))
	}
	return b.String()
}

// FormatConfig formats a user configuration.
func FormatConfig(cfg model.UserConfig) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚙️ <b>Configuration</b> | %s\n\n", cfg.User))
	b.WriteString(fmt.Sprintf("Currency: %s\n", cfg.LocalCurrency))
	b.WriteString(fmt.Sprintf("Target: %d%% of each salary\n", cfg.TargetPercentage))
	b.WriteString(fmt.Sprintf("Threshold: %s (%d bp)\n", FormatBP(cfg.ThresholdBP), cfg.ThresholdBP))
	b.WriteString(fmt.Sprintf("Last conversion: %s\n", ledgerTime(cfg.LastConversion)))
	b.WriteString(fmt.Sprintf("Total protected: %s\n", FormatMoney(cfg.TotalProtected, usd)))
	return b.String()
}

// FormatHistory lists the most recent conversions, newest first, up to limit.
// A non-positive limit lists everything.
func FormatHistory(cfg model.UserConfig, events []model.ConversionEvent, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 <b>Conversions</b> | %s (%d)\n\n", cfg.User, len(events)))
	if len(events) == 0 {
		b.WriteString("No conversions yet.\n")
		return b.String()
	}
	shown := 0
	for i := len(events) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			b.WriteString(fmt.Sprintf("… %d older\n", len(events)-shown))
			break
		}
		e := events[i]
		b.WriteString(fmt.Sprintf("%s  %s → %s (%s)\n",
			ledgerTime(e.Timestamp),
			FormatMoney(e.LocalAmount, cfg.LocalCurrency),
			FormatMoney(e.USDAmount, usd),
			e.Trigger))
		shown++
	}
	return b.String()
}

// FormatCurrencies lists the supported currencies.
func FormatCurrencies(codes []string) string {
	if len(codes) == 0 {
		return "No currencies supported."
	}
	return "💱 Supported currencies: " + strings.Join(codes, ", ")
}
