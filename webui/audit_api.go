// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file contains the REST API organism serving
// audit submission, history, export, metrics and health.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"freightaudit/audit"
	"freightaudit/db"
	"freightaudit/logging"
	"freightaudit/metrics"

	"go.uber.org/zap"
)

// DefaultHistoryLimit is how many audits GET /api/audits returns when the
// limit query parameter is absent.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps the limit query parameter.
const MaxHistoryLimit = 500

// AuditRunner runs one delivery audit. Implemented by audit.Orchestrator.
type AuditRunner interface {
	Run(ctx context.Context, req audit.Request) (audit.Result, error)
}

// AuditAPI is the REST API organism for the audit backend.
//
// Organism composition:
//   - AuditRunner (audit.Orchestrator): executes submitted audits
//   - db.Repository: audit history queries and CSV export
//   - db.Database: health probe target
//   - metrics.Collector: dashboard counters
//
// The repository, database and collector are optional; endpoints that need
// a missing dependency answer 503.
type AuditAPI struct {
	runner        AuditRunner
	repo          *db.Repository
	database      *db.Database
	collector     metrics.Collector
	maxUploadSize int64
	logger        *logging.Logger
}

// AuditAPIConfig configures the AuditAPI.
type AuditAPIConfig struct {
	// MaxUploadSize bounds the multipart request body in bytes.
	MaxUploadSize int64
}

// NewAuditAPI creates the API organism. The runner and logger are required.
func NewAuditAPI(
	config AuditAPIConfig,
	runner AuditRunner,
	repo *db.Repository,
	database *db.Database,
	collector metrics.Collector,
	logger *logging.Logger,
) (*AuditAPI, error) {
	if runner == nil || logger == nil {
		return nil, errors.New("webui: audit runner and logger are required")
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 20 * 1024 * 1024
	}

	return &AuditAPI{
		runner:        runner,
		repo:          repo,
		database:      database,
		collector:     collector,
		maxUploadSize: config.MaxUploadSize,
		logger:        logger.Named("api"),
	}, nil
}

// auditView is the JSON shape of one history row.
type auditView struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	GateOutcome  string `json:"gate_outcome"`
	GoodsScore   int    `json:"goods_score"`
	GoodsBlurry  bool   `json:"goods_blurry"`
	GoodsReason  string `json:"goods_reason,omitempty"`
	DocScore     int    `json:"doc_score"`
	DocBlurry    bool   `json:"doc_blurry"`
	DocReason    string `json:"doc_reason,omitempty"`
	DocIsPDF     bool   `json:"doc_is_pdf"`
	OracleStatus string `json:"oracle_status,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	DurationMS   int    `json:"duration_ms"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func viewFromRecord(record db.AuditRecord) auditView {
	return auditView{
		ID:           record.ID,
		CreatedAt:    record.CreatedAt.UTC().Format(time.RFC3339),
		GateOutcome:  record.GateOutcome,
		GoodsScore:   record.GoodsScore,
		GoodsBlurry:  record.GoodsBlurry,
		GoodsReason:  record.GoodsReason,
		DocScore:     record.DocScore,
		DocBlurry:    record.DocBlurry,
		DocReason:    record.DocReason,
		DocIsPDF:     record.DocIsPDF,
		OracleStatus: record.OracleStatus,
		ModelName:    record.ModelName,
		DurationMS:   record.DurationMS,
		ErrorMessage: record.ErrorMessage,
	}
}

// HandleAudits dispatches /api/audits by method: POST submits an audit, GET
// lists history.
func (a *AuditAPI) HandleAudits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleCreateAudit(w, r)
	case http.MethodGet:
		a.handleListAudits(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateAudit accepts a multipart form with parts "goods" (image),
// "document" (image or PDF) and an optional "force" field, runs the audit,
// and returns the audit.Result as JSON.
//
// A retake verdict is a successful audit from the API's point of view and
// returns 200; the outcome field tells the client what to do next.
func (a *AuditAPI) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)
	if err := r.ParseMultipartForm(a.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	goods, goodsMIME, err := readUploadPart(r, "goods")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	document, documentMIME, err := readUploadPart(r, "document")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := audit.Request{
		GoodsImage:   goods,
		GoodsMIME:    goodsMIME,
		Document:     document,
		DocumentMIME: documentMIME,
		Force:        r.FormValue("force") == "true",
	}

	result, err := a.runner.Run(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, audit.ErrNoGoodsImage) || errors.Is(err, audit.ErrNoDocument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "audit cancelled")
	case result.Outcome == audit.OutcomeRetake:
		// Document extraction failed; the client should re-upload.
		writeJSON(w, http.StatusUnprocessableEntity, result)
	default:
		// Reasoning service failure. The gate verdicts are still valid, so
		// include them alongside the error.
		a.logger.Error("audit failed", zap.String("audit_id", result.ID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  "reasoning service unavailable",
			"result": result,
		})
	}
}

// handleListAudits returns recent audit history, optionally filtered by
// outcome: GET /api/audits?limit=20&outcome=retake_requested
func (a *AuditAPI) handleListAudits(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "audit history not available")
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var (
		records []db.AuditRecord
		err     error
	)
	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		records, err = a.repo.QueryAuditsByOutcome(r.Context(), outcome, limit)
	} else {
		records, err = a.repo.QueryRecentAudits(r.Context(), limit)
	}
	if err != nil {
		a.logger.Error("history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query audit history")
		return
	}

	views := make([]auditView, 0, len(records))
	for _, record := range records {
		views = append(views, viewFromRecord(record))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"audits": views,
		"count":  len(views),
	})
}

// HandleExportCSV streams the full audit history as a CSV download.
func (a *AuditAPI) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if a.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "audit history not available")
		return
	}

	filename := fmt.Sprintf("audit-history-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := a.repo.ExportCSV(r.Context(), w); err != nil {
		// Headers are already written; all we can do is log.
		a.logger.Error("csv export failed", zap.Error(err))
	}
}

// HandleMetrics returns the gate and oracle counters for the dashboard.
func (a *AuditAPI) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if a.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not available")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gate":   a.collector.GetGateMetrics(),
		"oracle": a.collector.GetOracleMetrics(),
		"recent": a.collector.GetRecentAudits(10),
	})
}

// HandleHealth reports backend liveness: process status plus a database
// ping. Unauthenticated so load balancers can probe it.
func (a *AuditAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := "ok"
	code := http.StatusOK
	dbStatus := "not configured"

	if a.database != nil {
		if err := a.database.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		} else {
			dbStatus = "ok"
		}
	}

	body := map[string]interface{}{
		"status":   status,
		"database": dbStatus,
	}
	if a.collector != nil {
		body["system"] = a.collector.GetSystemStatus()
	}

	writeJSON(w, code, body)
}

// readUploadPart reads one file part from the parsed multipart form and
// returns its bytes and MIME type. The MIME comes from the part header,
// falling back to content sniffing.
func readUploadPart(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file part", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("reading %q part: %w", field, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%q file part is empty", field)
	}

	return data, partMIME(header, data), nil
}

// partMIME resolves the content type of an uploaded part.
func partMIME(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

// writeJSON serializes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
