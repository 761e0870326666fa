package model

// HistoryCapacity is the number of conversion events kept per user.
const HistoryCapacity = 50

// TriggerType records what caused a conversion.
type TriggerType string

const (
	TriggerAutomatic TriggerType = "automatic"
	TriggerManual    TriggerType = "manual"
)

// ConversionEvent is one entry of a user's conversion history.
type ConversionEvent struct {
	Timestamp    uint64      `json:"timestamp"`
	LocalAmount  Amount      `json:"local_amount"`
	USDAmount    Amount      `json:"usd_amount"`
	ExchangeRate Amount      `json:"exchange_rate"`
	Trigger      TriggerType `json:"trigger,omitempty"`
}
