package ledger

import "github.com/shopspring/decimal"

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordTransaction(operation string, amount decimal.Decimal)
	RecordDuplicate(operation string)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordDuplicate(string)                    {}
func (n *NoopMetricsCollector) RecordError(string, string)                {}
