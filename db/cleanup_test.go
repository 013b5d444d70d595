package db

import (
	"context"
	"testing"
)

func TestCleanupDeletesOldAudits(t *testing.T) {
	database := setupTestDB(t)
	repo := NewRepository(database, nil)
	ctx := context.Background()

	if err := repo.InsertAudit(ctx, sampleRecord("audit-old")); err != nil {
		t.Fatalf("InsertAudit() unexpected error: %v", err)
	}
	// Backdate the row past the retention window.
	if _, err := database.Exec(
		"UPDATE audit_history SET created_at = datetime('now', '-40 days') WHERE id = ?",
		"audit-old"); err != nil {
		t.Fatalf("failed to backdate record: %v", err)
	}
	if err := repo.InsertAudit(ctx, sampleRecord("audit-new")); err != nil {
		t.Fatalf("InsertAudit() unexpected error: %v", err)
	}

	result, err := database.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup() unexpected error: %v", err)
	}
	if result.AuditsDeleted != 1 {
		t.Errorf("AuditsDeleted = %d, want 1", result.AuditsDeleted)
	}

	count, err := repo.CountAudits(ctx)
	if err != nil {
		t.Fatalf("CountAudits() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("CountAudits() = %d after cleanup, want 1", count)
	}
	if _, err := repo.GetAuditByID(ctx, "audit-new"); err != nil {
		t.Errorf("recent record missing after cleanup: %v", err)
	}
}

func TestCleanupRejectsNegativeRetention(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.Cleanup(-1); err == nil {
		t.Error("Cleanup(-1) expected error")
	}
}

func TestCleanupNoOldRecords(t *testing.T) {
	database := setupTestDB(t)
	repo := NewRepository(database, nil)

	if err := repo.InsertAudit(context.Background(), sampleRecord("audit-fresh")); err != nil {
		t.Fatalf("InsertAudit() unexpected error: %v", err)
	}

	result, err := database.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup() unexpected error: %v", err)
	}
	if result.AuditsDeleted != 0 {
		t.Errorf("AuditsDeleted = %d, want 0", result.AuditsDeleted)
	}
}
