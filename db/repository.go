package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Gate outcome values stored in audit_history.gate_outcome.
const (
	// GateOutcomePassed means both photos cleared the sharpness gate and the
	// audit went to the reasoning service.
	GateOutcomePassed = "passed"

	// GateOutcomeRetake means at least one photo was too blurry and the
	// driver was asked to retake it; no reasoning call was made.
	GateOutcomeRetake = "retake_requested"

	// GateOutcomeOverridden means a blurry photo was forced through with the
	// degraded-accuracy disclaimer attached.
	GateOutcomeOverridden = "overridden"

	// GateOutcomeFailOpen means a photo could not be measured (decode failure
	// or processing fault) and the audit proceeded on the fail-open path.
	GateOutcomeFailOpen = "fail_open"
)

// ErrAuditNotFound is returned when an audit ID has no row.
var ErrAuditNotFound = errors.New("db: audit record not found")

// AuditRecord represents a row in the audit_history table: one delivery
// audit from upload through gate verdicts to the oracle's decision.
type AuditRecord struct {
	ID             string    // Audit UUID, assigned at upload time
	GoodsScore     int       // Sharpness score of the goods photo
	GoodsBlurry    bool      // Gate verdict for the goods photo
	GoodsReason    string    // Verdict reason (measured, decode_failure, ...)
	DocScore       int       // Sharpness score of the document photo (0 for PDFs)
	DocBlurry      bool      // Gate verdict for the document photo
	DocReason      string    // Verdict reason for the document photo
	DocIsPDF       bool      // True when the document bypassed the gate as a PDF
	GateOutcome    string    // One of the GateOutcome* constants
	OracleStatus   string    // Report status: "pass", "attention", "fail" ("" if no call)
	ReportJSON     string    // Full inspection report as JSON ("" if no call)
	ModelName      string    // Reasoning model used
	DurationMS     int       // End-to-end audit duration in milliseconds
	ErrorMessage   string    // Error description when the audit failed
	CreatedAt      time.Time // Timestamp when record was created
}

// Repository provides CRUD operations for the audit_history table.
//
// The Repository works with both synchronous and asynchronous writes: when an
// AsyncWriter is supplied, inserts are queued and the upload handler does not
// wait on SQLite.
type Repository struct {
	db          *Database
	asyncWriter *AsyncWriter
}

// NewRepository creates a new Repository instance.
// The asyncWriter parameter is optional; if nil, all writes are synchronous.
func NewRepository(db *Database, asyncWriter *AsyncWriter) *Repository {
	return &Repository{
		db:          db,
		asyncWriter: asyncWriter,
	}
}

const insertAuditQuery = `
	INSERT INTO audit_history (
		id, goods_score, goods_blurry, goods_reason,
		doc_score, doc_blurry, doc_reason, doc_is_pdf,
		gate_outcome, oracle_status, report_json, model_name,
		duration_ms, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertAuditArgs(record AuditRecord) []interface{} {
	return []interface{}{
		record.ID,
		record.GoodsScore,
		record.GoodsBlurry,
		record.GoodsReason,
		record.DocScore,
		record.DocBlurry,
		record.DocReason,
		record.DocIsPDF,
		record.GateOutcome,
		nullString(record.OracleStatus),
		nullString(record.ReportJSON),
		nullString(record.ModelName),
		record.DurationMS,
		nullString(record.ErrorMessage),
	}
}

// InsertAudit inserts an audit history record.
// If an asyncWriter is configured and running, the write is queued; a full
// queue falls back to a synchronous write so no audit is ever dropped.
func (r *Repository) InsertAudit(ctx context.Context, record AuditRecord) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if record.ID == "" {
		return fmt.Errorf("audit record requires an ID")
	}

	args := insertAuditArgs(record)

	if r.asyncWriter != nil && r.asyncWriter.IsStarted() {
		op := asyncInsertOp{query: insertAuditQuery, args: args}
		if r.asyncWriter.Write(op) {
			return nil
		}
		// Fall through to sync write if channel is full
	}

	if _, err := r.db.Exec(insertAuditQuery, args...); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

const selectAuditColumns = `
	SELECT id, goods_score, goods_blurry, COALESCE(goods_reason, ''),
		   doc_score, doc_blurry, COALESCE(doc_reason, ''), doc_is_pdf,
		   gate_outcome, COALESCE(oracle_status, ''), COALESCE(report_json, ''),
		   COALESCE(model_name, ''), COALESCE(duration_ms, 0),
		   COALESCE(error_message, ''), created_at
	FROM audit_history`

func scanAuditRow(scan func(dest ...interface{}) error) (AuditRecord, error) {
	var rec AuditRecord
	var createdAt string

	err := scan(
		&rec.ID,
		&rec.GoodsScore,
		&rec.GoodsBlurry,
		&rec.GoodsReason,
		&rec.DocScore,
		&rec.DocBlurry,
		&rec.DocReason,
		&rec.DocIsPDF,
		&rec.GateOutcome,
		&rec.OracleStatus,
		&rec.ReportJSON,
		&rec.ModelName,
		&rec.DurationMS,
		&rec.ErrorMessage,
		&createdAt,
	)
	if err != nil {
		return AuditRecord{}, err
	}

	// SQLite stores CURRENT_TIMESTAMP as UTC text
	rec.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return rec, nil
}

// GetAuditByID retrieves a single audit record.
// Returns ErrAuditNotFound when no row matches.
func (r *Repository) GetAuditByID(ctx context.Context, id string) (AuditRecord, error) {
	if r.db == nil {
		return AuditRecord{}, fmt.Errorf("database connection is nil")
	}

	row := r.db.QueryRow(selectAuditColumns+" WHERE id = ?", id)
	rec, err := scanAuditRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuditRecord{}, ErrAuditNotFound
		}
		return AuditRecord{}, fmt.Errorf("failed to query audit record: %w", err)
	}

	return rec, nil
}

// QueryRecentAudits retrieves the most recent audit records.
// Results are ordered by created_at DESC.
func (r *Repository) QueryRecentAudits(ctx context.Context, limit int) ([]AuditRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	if limit <= 0 {
		limit = 50 // Default limit
	}

	rows, err := r.db.Query(selectAuditColumns+" ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	return collectAuditRows(rows)
}

// QueryAuditsByOutcome retrieves audits filtered by gate outcome.
func (r *Repository) QueryAuditsByOutcome(ctx context.Context, outcome string, limit int) ([]AuditRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		selectAuditColumns+" WHERE gate_outcome = ? ORDER BY created_at DESC, id LIMIT ?",
		outcome, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	return collectAuditRows(rows)
}

// QueryAllAudits retrieves every audit record, oldest first.
// Used by the CSV export; audit history on a single gate node stays small
// enough to hold in memory.
func (r *Repository) QueryAllAudits(ctx context.Context) ([]AuditRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	rows, err := r.db.Query(selectAuditColumns + " ORDER BY created_at ASC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	return collectAuditRows(rows)
}

func collectAuditRows(rows *sql.Rows) ([]AuditRecord, error) {
	var records []AuditRecord
	for rows.Next() {
		rec, err := scanAuditRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return records, nil
}

// CountAudits returns the total count of audit records.
func (r *Repository) CountAudits(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM audit_history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	return count, nil
}

// CountAuditsByOutcome returns the count of audits for one gate outcome.
func (r *Repository) CountAuditsByOutcome(ctx context.Context, outcome string) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM audit_history WHERE gate_outcome = ?", outcome).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	return count, nil
}

// asyncInsertOp is an internal type for async insert operations.
type asyncInsertOp struct {
	query string
	args  []interface{}
}

// CreateAsyncWriteHandler creates a WriteHandler for the Repository.
// This handler processes asyncInsertOp operations.
func (r *Repository) CreateAsyncWriteHandler() WriteHandler {
	return func(op WriteOperation) error {
		insertOp, ok := op.Data.(asyncInsertOp)
		if !ok {
			return fmt.Errorf("invalid operation type: expected asyncInsertOp")
		}

		_, err := r.db.Exec(insertOp.query, insertOp.args...)
		return err
	}
}

// nullString converts an empty string to sql.NullString for NULL storage.
func nullString(s string) interface{} {
	if s == "" {
		return sql.NullString{String: "", Valid: false}
	}
	return s
}
