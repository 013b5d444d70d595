// Package metrics provides the Store organism for in-memory metrics storage.
package metrics

import (
	"sync"
	"time"
)

// Gate outcome values for AuditSample.GateOutcome. These mirror the values
// stored in the audit_history table.
const (
	OutcomePassed     = "passed"
	OutcomeRetake     = "retake_requested"
	OutcomeOverridden = "overridden"
	OutcomeFailOpen   = "fail_open"
)

// Oracle status values for AuditSample.OracleStatus.
const (
	OracleStatusPass      = "pass"
	OracleStatusAttention = "attention"
	OracleStatusFail      = "fail"
	OracleStatusError     = "error"
)

// Store is an in-memory storage organism for dashboard metrics.
// It implements the Collector interface and provides thread-safe access to
// recent audit samples, gate statistics, and system health.
//
// This is an organism-level component that composes:
// - A circular buffer for recent audit history
// - sync.RWMutex for thread-safety
// - metrics types (AuditSample, GateMetrics, OracleMetrics)
//
// Usage:
//
//	store := NewStore(DefaultStoreConfig(), time.Now())
//	store.RecordAudit(sample)
//	gate := store.GetGateMetrics()
type Store struct {
	mu sync.RWMutex

	// Audit history circular buffer
	history []AuditSample
	cap     int
	head    int
	size    int

	// Gate aggregation
	totalAudits   int64
	passed        int64
	retake        int64
	overridden    int64
	failOpen      int64
	totalDuration time.Duration

	// Oracle aggregation
	oracleCalls     int64
	oraclePass      int64
	oracleAttention int64
	oracleFail      int64
	oracleErrors    int64

	// System metadata
	startTime time.Time
	version   string
	healthy   bool
}

// StoreConfig configures the Store behavior.
type StoreConfig struct {
	// HistoryCapacity is the max number of audit samples to retain
	HistoryCapacity int
	// Version is the application version string
	Version string
}

// DefaultStoreConfig returns a default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: 100,
		Version:         "0.0.0",
	}
}

// NewStore creates a new Store with the specified configuration.
// The startTime is used to calculate uptime.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = 100
	}

	return &Store{
		history:   make([]AuditSample, capacity),
		cap:       capacity,
		startTime: startTime,
		version:   config.Version,
		healthy:   true,
	}
}

// RecordAudit logs a completed audit.
// This implements part of the Collector interface.
func (s *Store) RecordAudit(sample AuditSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Add to circular buffer
	s.history[s.head] = sample
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}

	s.totalAudits++
	s.totalDuration += sample.Duration

	switch sample.GateOutcome {
	case OutcomePassed:
		s.passed++
	case OutcomeRetake:
		s.retake++
	case OutcomeOverridden:
		s.overridden++
	case OutcomeFailOpen:
		s.failOpen++
	}

	switch sample.OracleStatus {
	case OracleStatusPass:
		s.oracleCalls++
		s.oraclePass++
	case OracleStatusAttention:
		s.oracleCalls++
		s.oracleAttention++
	case OracleStatusFail:
		s.oracleCalls++
		s.oracleFail++
	case OracleStatusError:
		s.oracleCalls++
		s.oracleErrors++
	}
}

// GetGateMetrics returns aggregated sharpness gate statistics.
// This implements part of the Collector interface.
func (s *Store) GetGateMetrics() GateMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := GateMetrics{
		TotalAudits:     s.totalAudits,
		Passed:          s.passed,
		RetakeRequested: s.retake,
		Overridden:      s.overridden,
		FailOpen:        s.failOpen,
	}

	if s.totalAudits > 0 {
		m.RetakeRate = float64(s.retake) / float64(s.totalAudits) * 100
		m.AvgDuration = s.totalDuration / time.Duration(s.totalAudits)
	}

	return m
}

// GetOracleMetrics returns aggregated reasoning service statistics.
// This implements part of the Collector interface.
func (s *Store) GetOracleMetrics() OracleMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return OracleMetrics{
		TotalCalls: s.oracleCalls,
		Pass:       s.oraclePass,
		Attention:  s.oracleAttention,
		Fail:       s.oracleFail,
		Errors:     s.oracleErrors,
	}
}

// GetRecentAudits returns the N most recent audit samples, newest first.
// If limit exceeds available samples, all available are returned.
// This implements part of the Collector interface.
func (s *Store) GetRecentAudits(limit int) []AuditSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || s.size == 0 {
		return []AuditSample{}
	}

	if limit > s.size {
		limit = s.size
	}

	// Walk backwards from head so the newest sample comes first
	result := make([]AuditSample, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		result[i] = s.history[idx]
	}

	return result
}

// SetHealthy updates the system health flag reported by GetSystemStatus.
func (s *Store) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// GetSystemStatus returns the overall system health status.
// This implements part of the Collector interface.
func (s *Store) GetSystemStatus() SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := SystemHealthRunning
	if !s.healthy {
		health = SystemHealthError
	}

	return SystemStatus{
		Health:    health,
		Version:   s.version,
		Uptime:    time.Since(s.startTime),
		LastCheck: time.Now(),
	}
}

// Verify Store implements the Collector interface
var _ Collector = (*Store)(nil)
