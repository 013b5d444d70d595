// Package metrics provides the Collector interface for aggregating metrics.
// This is a molecule that composes the atom-level types from types.go.
package metrics

// Collector defines the interface for recording and reading audit metrics.
//
// Implementation strategy:
// - Implementations aggregate gate outcomes and oracle decisions per audit
// - Methods must be concurrency-safe
// - Zero values are returned for unavailable metrics
type Collector interface {
	// RecordAudit logs a completed audit.
	// Aggregates AuditSample atoms into the metrics system.
	RecordAudit(sample AuditSample)

	// GetGateMetrics returns aggregated sharpness gate statistics.
	GetGateMetrics() GateMetrics

	// GetOracleMetrics returns aggregated reasoning service statistics.
	GetOracleMetrics() OracleMetrics

	// GetRecentAudits returns the N most recent audit samples, newest first.
	GetRecentAudits(limit int) []AuditSample

	// GetSystemStatus returns the overall system health status.
	GetSystemStatus() SystemStatus
}
