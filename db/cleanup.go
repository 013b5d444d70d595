package db

import (
	"context"
	"fmt"
	"time"
)

// CleanupResult contains statistics about a retention cleanup run.
type CleanupResult struct {
	// AuditsDeleted is the number of records deleted from audit_history
	AuditsDeleted int64
	// Duration is how long the cleanup took
	Duration time.Duration
}

// Cleanup deletes audit records older than retentionDays and runs VACUUM to
// reclaim disk space. Audit photos themselves are never stored, so retention
// only trims the verdict rows.
//
// Example:
//
//	result, err := store.Cleanup(90) // Delete audits older than 90 days
//	if err != nil {
//	    log.Printf("Cleanup failed: %v", err)
//	}
func (d *Database) Cleanup(retentionDays int) (CleanupResult, error) {
	return d.CleanupWithContext(context.Background(), retentionDays)
}

// CleanupWithContext is the context-aware version of Cleanup. It returns
// early if the context is cancelled, rolling back any pending changes.
func (d *Database) CleanupWithContext(ctx context.Context, retentionDays int) (CleanupResult, error) {
	start := time.Now()
	result := CleanupResult{}

	if retentionDays < 0 {
		return result, fmt.Errorf("retentionDays must be non-negative, got %d", retentionDays)
	}

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return result, fmt.Errorf("database connection is closed")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback() // No-op if already committed
		}
	}()

	// SQLite datetime comparison: datetime('now', '-N days')
	query := fmt.Sprintf(
		"DELETE FROM audit_history WHERE created_at < datetime('now', '-%d days')",
		retentionDays)

	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return result, fmt.Errorf("failed to delete old audit records: %w", err)
	}
	result.AuditsDeleted, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	tx = nil

	// VACUUM cannot run inside a transaction
	if result.AuditsDeleted > 0 {
		if _, err := d.db.ExecContext(ctx, "VACUUM"); err != nil {
			return result, fmt.Errorf("failed to vacuum database: %w", err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}
