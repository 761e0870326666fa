package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSetup(_ *SetupEvent) error             { return nil }
func (n *NoopRecorder) RecordSalary(_ *SalaryEvent) error           { return nil }
func (n *NoopRecorder) RecordConversion(_ *ConversionRecord) error  { return nil }
func (n *NoopRecorder) RecordMetrics(_ *MetricsSnapshot) error      { return nil }
func (n *NoopRecorder) RecordRemoval(_ *RemovalEvent) error         { return nil }
func (n *NoopRecorder) Close() error                                { return nil }
