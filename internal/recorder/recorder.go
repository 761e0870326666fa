package recorder

import "SalaryHedge/internal/model"

// SetupEvent records a configuration write.
type SetupEvent struct {
	User             model.UserID
	Currency         string
	TargetPercentage uint32
	ThresholdBP      int64
	Timestamp        uint64
}

// SalaryEvent records one salary run and the trigger decision taken.
type SalaryEvent struct {
	User             model.UserID
	Currency         string
	Amount           model.Amount
	ConversionAmount model.Amount
	DevaluationBP    int64
	Reason           model.SalaryReason
	Timestamp        uint64
}

// ConversionRecord mirrors a committed conversion together with the
// accumulator it produced.
type ConversionRecord struct {
	User           model.UserID
	Currency       string
	Event          model.ConversionEvent
	TotalProtected model.Amount
}

// MetricsSnapshot records a protection report.
type MetricsSnapshot struct {
	User      model.UserID
	Currency  string
	Metrics   model.ProtectionMetrics
	Timestamp uint64
}

// RemovalEvent records an administrative removal.
type RemovalEvent struct {
	User      model.UserID
	By        model.UserID
	Timestamp uint64
}

// Recorder persists an off-ledger audit trail for analysis.
type Recorder interface {
	RecordSetup(evt *SetupEvent) error
	RecordSalary(evt *SalaryEvent) error
	RecordConversion(rec *ConversionRecord) error
	RecordMetrics(snap *MetricsSnapshot) error
	RecordRemoval(evt *RemovalEvent) error
	Close() error
}
