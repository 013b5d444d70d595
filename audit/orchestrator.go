// Package audit orchestrates a delivery audit: sharpness gating of the
// uploaded photos, the optional PDF text extraction, the reasoning service
// call, and persistence of the outcome.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"freightaudit/db"
	"freightaudit/docextract"
	"freightaudit/logging"
	"freightaudit/metrics"
	"freightaudit/oracle"
	"freightaudit/sharpness"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator errors.
var (
	// ErrNoGoodsImage indicates the request carried no goods photo.
	ErrNoGoodsImage = errors.New("audit: goods image is required")

	// ErrNoDocument indicates the request carried no delivery document.
	ErrNoDocument = errors.New("audit: delivery document is required")

	// ErrNilDependency indicates the orchestrator was built without a
	// required component.
	ErrNilDependency = errors.New("audit: missing required dependency")
)

// Outcome is the final disposition of one audit request.
type Outcome string

const (
	// OutcomePassed: both photos cleared the gate and the oracle was called.
	OutcomePassed Outcome = "passed"

	// OutcomeRetake: at least one photo was too blurry; the caller should
	// retake it. No oracle call was made.
	OutcomeRetake Outcome = "retake_requested"

	// OutcomeOverridden: a blurry photo was forced through with the
	// degraded-accuracy annotation.
	OutcomeOverridden Outcome = "overridden"

	// OutcomeFailOpen: a photo could not be measured and the audit
	// proceeded anyway.
	OutcomeFailOpen Outcome = "fail_open"
)

// Reasoner is the slice of the oracle client the orchestrator needs.
type Reasoner interface {
	Audit(ctx context.Context, input oracle.AuditInput) (*oracle.InspectionReport, error)
}

// Request is one delivery audit submission.
type Request struct {
	// GoodsImage is the photo of the delivered goods.
	GoodsImage []byte
	// GoodsMIME is its content type (e.g. "image/jpeg").
	GoodsMIME string

	// Document is the delivery document: a photo or a PDF.
	Document []byte
	// DocumentMIME is its content type.
	DocumentMIME string

	// Force pushes a blurry photo through to the oracle anyway. The
	// report is annotated as degraded-accuracy.
	Force bool
}

// GateResult is the sharpness outcome for one photo, surfaced to the caller
// so the driver knows why a retake was requested.
type GateResult struct {
	Verdict   sharpness.Verdict `json:"verdict"`
	Threshold int               `json:"threshold"`
}

// Result is the full outcome of one audit request.
type Result struct {
	// ID is the audit UUID, also the key into audit history.
	ID string `json:"id"`

	// Outcome is the final disposition.
	Outcome Outcome `json:"outcome"`

	// Goods is the gate result for the goods photo.
	Goods GateResult `json:"goods"`

	// Doc is the gate result for the document photo. Zero-valued when the
	// document was a PDF.
	Doc GateResult `json:"doc"`

	// DocIsPDF reports whether the document bypassed the gate as a PDF.
	DocIsPDF bool `json:"doc_is_pdf"`

	// Report is the oracle's inspection report; nil when no call was made
	// or the call failed.
	Report *oracle.InspectionReport `json:"report,omitempty"`

	// OracleErr carries the reasoning service failure, if any.
	OracleErr error `json:"-"`

	// Duration is the end-to-end audit time.
	Duration time.Duration `json:"duration_ms"`
}

// Config bounds the orchestrator's work.
type Config struct {
	// Calibration tunes the sharpness gate.
	Calibration sharpness.Calibration

	// ModelName is recorded with each persisted audit.
	ModelName string
}

// Orchestrator runs delivery audits end to end.
//
// This is an organism-level component that composes:
//   - sharpness.Gatekeeper: the blur gate (one Evaluate per photo)
//   - docextract.Extractor: PDF text extraction
//   - Reasoner: the external reasoning service client
//   - db.Repository: audit history persistence
//   - metrics.Collector: dashboard counters
//
// Thread-Safety:
//   - Orchestrator is safe for concurrent use; each Run call is independent.
type Orchestrator struct {
	config    Config
	gate      *sharpness.Gatekeeper
	extractor *docextract.Extractor
	reasoner  Reasoner
	repo      *db.Repository
	collector metrics.Collector
	logger    *logging.Logger
}

// NewOrchestrator creates an audit Orchestrator. The repository and collector
// are optional; pass nil to skip persistence or metrics.
func NewOrchestrator(
	config Config,
	gate *sharpness.Gatekeeper,
	extractor *docextract.Extractor,
	reasoner Reasoner,
	repo *db.Repository,
	collector metrics.Collector,
	logger *logging.Logger,
) (*Orchestrator, error) {
	if gate == nil || reasoner == nil || logger == nil {
		return nil, ErrNilDependency
	}
	if extractor == nil {
		extractor = docextract.NewExtractor(docextract.DefaultExtractorConfig())
	}

	return &Orchestrator{
		config:    config,
		gate:      gate,
		extractor: extractor,
		reasoner:  reasoner,
		repo:      repo,
		collector: collector,
		logger:    logger.Named("audit"),
	}, nil
}

// Run executes one delivery audit and returns its Result.
//
// The two photos are gated concurrently; the oracle call is strictly
// sequenced after both verdicts. A blurry verdict stops the audit with
// OutcomeRetake unless the request carries Force, in which case the audit
// proceeds with the degraded-accuracy annotation. Unmeasurable photos
// (decode failures, pipeline faults) never block the audit.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if len(req.GoodsImage) == 0 {
		return Result{}, ErrNoGoodsImage
	}
	if len(req.Document) == 0 {
		return Result{}, ErrNoDocument
	}

	result := Result{
		ID:       uuid.New().String(),
		DocIsPDF: docextract.IsPDF(req.Document),
	}

	log := o.logger.With(
		zap.String("audit_id", result.ID),
		zap.Bool("force", req.Force),
		zap.Bool("doc_is_pdf", result.DocIsPDF),
	)
	log.Info("audit started",
		zap.Int("goods_bytes", len(req.GoodsImage)),
		zap.Int("doc_bytes", len(req.Document)))

	// Gate both photos concurrently. PDFs have no focus to measure and
	// skip the gate entirely.
	threshold := o.config.Calibration.BlurThreshold
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result.Goods = GateResult{
			Verdict:   o.gate.Evaluate(ctx, req.GoodsImage),
			Threshold: threshold,
		}
	}()
	if !result.DocIsPDF {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Doc = GateResult{
				Verdict:   o.gate.Evaluate(ctx, req.Document),
				Threshold: threshold,
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Outcome = classify(result, req.Force)
	log.Info("gate verdicts",
		zap.Int("goods_score", result.Goods.Verdict.Score),
		zap.Bool("goods_blurry", result.Goods.Verdict.IsBlurry),
		zap.Int("doc_score", result.Doc.Verdict.Score),
		zap.Bool("doc_blurry", result.Doc.Verdict.IsBlurry),
		zap.String("outcome", string(result.Outcome)))

	if result.Outcome == OutcomeRetake {
		result.Duration = time.Since(start)
		o.record(ctx, result)
		return result, nil
	}

	input, err := o.buildOracleInput(req, result)
	if err != nil {
		// Document text extraction failed; ask for a re-upload rather
		// than sending the oracle an unreadable document.
		log.Warn("document extraction failed", zap.Error(err))
		result.Outcome = OutcomeRetake
		result.Duration = time.Since(start)
		o.record(ctx, result)
		return result, err
	}

	report, err := o.reasoner.Audit(ctx, input)
	if err != nil {
		log.Error("reasoning service call failed", zap.Error(err))
		result.OracleErr = err
		result.Duration = time.Since(start)
		o.record(ctx, result)
		return result, err
	}

	result.Report = report
	result.Duration = time.Since(start)
	log.Info("audit completed",
		zap.String("status", string(report.Status)),
		zap.Duration("duration", result.Duration))

	o.record(ctx, result)
	return result, nil
}

// classify maps the two gate verdicts and the force flag onto an Outcome.
func classify(result Result, force bool) Outcome {
	goods := result.Goods.Verdict
	doc := result.Doc.Verdict

	blurry := goods.IsBlurry || (!result.DocIsPDF && doc.IsBlurry)
	if blurry {
		if force {
			return OutcomeOverridden
		}
		return OutcomeRetake
	}

	if failOpen(goods.Reason) || (!result.DocIsPDF && failOpen(doc.Reason)) {
		return OutcomeFailOpen
	}

	return OutcomePassed
}

func failOpen(reason sharpness.VerdictReason) bool {
	return reason == sharpness.ReasonDecodeFailure || reason == sharpness.ReasonProcessingError
}

// buildOracleInput assembles the reasoning service payload: the goods photo
// always travels as an image, the document as a second image or as extracted
// PDF text.
func (o *Orchestrator) buildOracleInput(req Request, result Result) (oracle.AuditInput, error) {
	input := oracle.AuditInput{
		GoodsImage: oracle.ImagePayload{Data: req.GoodsImage, MIME: req.GoodsMIME},
		Degraded:   result.Outcome == OutcomeOverridden,
	}

	if result.DocIsPDF {
		extracted, err := o.extractor.ExtractText(req.Document)
		if err != nil {
			return oracle.AuditInput{}, err
		}
		input.DocumentText = extracted.Text
		return input, nil
	}

	input.DocumentImage = &oracle.ImagePayload{Data: req.Document, MIME: req.DocumentMIME}
	return input, nil
}

// record persists the audit and updates the dashboard counters. Persistence
// failures are logged, never surfaced: the caller already has the verdict.
func (o *Orchestrator) record(ctx context.Context, result Result) {
	sample := metrics.AuditSample{
		ID:          result.ID,
		GateOutcome: string(result.Outcome),
		GoodsScore:  result.Goods.Verdict.Score,
		DocScore:    result.Doc.Verdict.Score,
		StartTime:   time.Now().Add(-result.Duration),
		Duration:    result.Duration,
	}

	record := db.AuditRecord{
		ID:          result.ID,
		GoodsScore:  result.Goods.Verdict.Score,
		GoodsBlurry: result.Goods.Verdict.IsBlurry,
		GoodsReason: string(result.Goods.Verdict.Reason),
		DocScore:    result.Doc.Verdict.Score,
		DocBlurry:   result.Doc.Verdict.IsBlurry,
		DocReason:   string(result.Doc.Verdict.Reason),
		DocIsPDF:    result.DocIsPDF,
		GateOutcome: string(result.Outcome),
		ModelName:   o.config.ModelName,
		DurationMS:  int(result.Duration.Milliseconds()),
	}

	if result.Report != nil {
		record.OracleStatus = string(result.Report.Status)
		sample.OracleStatus = string(result.Report.Status)
		if data, err := json.Marshal(result.Report); err == nil {
			record.ReportJSON = string(data)
		}
	} else if result.OracleErr != nil {
		record.OracleStatus = metrics.OracleStatusError
		record.ErrorMessage = result.OracleErr.Error()
		sample.OracleStatus = metrics.OracleStatusError
		sample.ErrorMsg = result.OracleErr.Error()
	}

	if o.collector != nil {
		o.collector.RecordAudit(sample)
	}

	if o.repo != nil {
		if err := o.repo.InsertAudit(ctx, record); err != nil {
			o.logger.Error("failed to persist audit record",
				zap.String("audit_id", result.ID),
				zap.Error(err))
		}
	}
}
