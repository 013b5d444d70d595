package db

import (
	"context"
	"path/filepath"
	"testing"
)

// The tests run from the package directory, so the real migration files
// are reachable at file://migrations.
const testMigrationsPath = "file://migrations"

func TestMigrateUpAppliesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrated.db")

	if err := MigrateUpFromPath(path, testMigrationsPath); err != nil {
		t.Fatalf("MigrateUpFromPath() unexpected error: %v", err)
	}

	database, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase() unexpected error: %v", err)
	}
	defer database.Close()

	repo := NewRepository(database, nil)
	if err := repo.InsertAudit(context.Background(), sampleRecord("audit-migrated")); err != nil {
		t.Errorf("InsertAudit() on migrated schema: %v", err)
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	if err := MigrateUpFromPath(path, testMigrationsPath); err != nil {
		t.Fatalf("first MigrateUpFromPath() unexpected error: %v", err)
	}
	if err := MigrateUpFromPath(path, testMigrationsPath); err != nil {
		t.Errorf("second MigrateUpFromPath() unexpected error: %v", err)
	}
}

func TestDatabaseMigrateWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "organism.db")

	database, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase() unexpected error: %v", err)
	}
	defer database.Close()

	if err := database.MigrateWithPath(testMigrationsPath); err != nil {
		t.Fatalf("MigrateWithPath() unexpected error: %v", err)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM audit_history").Scan(&count); err != nil {
		t.Errorf("audit_history table missing after migration: %v", err)
	}
}

func TestGetMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.db")

	if err := MigrateUpFromPath(path, testMigrationsPath); err != nil {
		t.Fatalf("MigrateUpFromPath() unexpected error: %v", err)
	}

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		t.Fatalf("NewSQLiteConnectionWithDefaults() unexpected error: %v", err)
	}

	version, dirty, err := GetMigrationVersion(conn, testMigrationsPath)
	if err != nil {
		t.Fatalf("GetMigrationVersion() unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if dirty {
		t.Error("dirty = true after clean migration")
	}
}

func TestNewMigratorValidation(t *testing.T) {
	if _, err := newMigrator(nil, DefaultMigrationConfig(testMigrationsPath)); err == nil {
		t.Error("newMigrator() expected error for nil connection")
	}
}
