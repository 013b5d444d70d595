// Package metrics provides pure data types for the dashboard metrics system.
// This file contains atom-level type definitions with no behavior.
package metrics

import "time"

// AuditSample represents a single completed audit for the dashboard.
// This is a pure data structure for tracking individual delivery audits.
type AuditSample struct {
	// ID is the audit UUID
	ID string `json:"id"`

	// GateOutcome is the sharpness gate result: "passed", "retake_requested",
	// "overridden", "fail_open"
	GateOutcome string `json:"gate_outcome"`

	// GoodsScore is the sharpness score of the goods photo
	GoodsScore int `json:"goods_score"`

	// DocScore is the sharpness score of the document photo (0 for PDFs)
	DocScore int `json:"doc_score"`

	// OracleStatus is the reasoning service decision ("" when no call was made)
	OracleStatus string `json:"oracle_status,omitempty"`

	// StartTime is when the audit began
	StartTime time.Time `json:"start_time"`

	// Duration is the total audit time
	Duration time.Duration `json:"duration"`

	// ErrorMsg contains error details when the audit failed
	ErrorMsg string `json:"error_msg,omitempty"`
}

// GateMetrics represents aggregated sharpness gate statistics.
// This is a pure data structure with no behavior.
type GateMetrics struct {
	// TotalAudits is the total number of audits processed
	TotalAudits int64 `json:"total_audits"`

	// Passed is the count of audits where both photos cleared the gate
	Passed int64 `json:"passed"`

	// RetakeRequested is the count of audits bounced back for a retake
	RetakeRequested int64 `json:"retake_requested"`

	// Overridden is the count of blurry photos forced through
	Overridden int64 `json:"overridden"`

	// FailOpen is the count of unmeasurable photos waved through
	FailOpen int64 `json:"fail_open"`

	// RetakeRate is the percentage of audits sent back (0-100)
	RetakeRate float64 `json:"retake_rate"`

	// AvgDuration is the average end-to-end audit time
	AvgDuration time.Duration `json:"avg_duration"`
}

// OracleMetrics represents aggregated reasoning service statistics.
// This is a pure data structure with no behavior.
type OracleMetrics struct {
	// TotalCalls is the number of reasoning service calls made
	TotalCalls int64 `json:"total_calls"`

	// Pass is the count of "pass" reports
	Pass int64 `json:"pass"`

	// Attention is the count of "attention" reports
	Attention int64 `json:"attention"`

	// Fail is the count of "fail" reports
	Fail int64 `json:"fail"`

	// Errors is the count of calls that did not produce a report
	Errors int64 `json:"errors"`
}

// SystemStatus represents the overall system health and status.
// This is a pure data structure with no behavior.
type SystemStatus struct {
	// Health indicates the system state: "running", "error", "stopped"
	Health string `json:"health"`

	// Version is the application version string
	Version string `json:"version"`

	// Uptime is the duration since the application started
	Uptime time.Duration `json:"uptime"`

	// LastCheck is the timestamp of the last health check
	LastCheck time.Time `json:"last_check"`
}

// Health constants for SystemStatus
const (
	SystemHealthRunning = "running"
	SystemHealthError   = "error"
	SystemHealthStopped = "stopped"
)
