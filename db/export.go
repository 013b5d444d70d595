package db

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// exportHeader is the CSV column order for audit exports.
var exportHeader = []string{
	"id", "created_at", "gate_outcome",
	"goods_score", "goods_blurry", "goods_reason",
	"doc_score", "doc_blurry", "doc_reason", "doc_is_pdf",
	"oracle_status", "model_name", "duration_ms", "error_message",
}

// ExportCSV writes the full audit history as CSV, oldest row first.
// The report JSON is deliberately left out: warehouse supervisors open
// this file in a spreadsheet, and the row already carries the status.
func (r *Repository) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := r.QueryAllAudits(ctx)
	if err != nil {
		return fmt.Errorf("failed to export audit history: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.GateOutcome,
			strconv.Itoa(rec.GoodsScore),
			strconv.FormatBool(rec.GoodsBlurry),
			rec.GoodsReason,
			strconv.Itoa(rec.DocScore),
			strconv.FormatBool(rec.DocBlurry),
			rec.DocReason,
			strconv.FormatBool(rec.DocIsPDF),
			rec.OracleStatus,
			rec.ModelName,
			strconv.Itoa(rec.DurationMS),
			rec.ErrorMessage,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}
