package audit

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"freightaudit/db"
	"freightaudit/logging"
	"freightaudit/metrics"
	"freightaudit/oracle"
	"freightaudit/sharpness"
)

// payloadDecoder maps payload contents onto synthetic images so gate
// verdicts can be scripted per photo without real JPEG fixtures.
type payloadDecoder struct{}

func (payloadDecoder) Decode(data []byte) (image.Image, error) {
	switch string(data) {
	case "sharp":
		return checkerboard(400, 400, 8), nil
	case "blurry":
		return solid(400, 400, color.Gray{Y: 128}), nil
	case "undecodable":
		return nil, errors.New("bad payload")
	default:
		return nil, errors.New("unknown payload")
	}
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

// fakeReasoner records calls and plays back a canned report.
type fakeReasoner struct {
	mu     sync.Mutex
	calls  int
	inputs []oracle.AuditInput
	report *oracle.InspectionReport
	err    error
}

func (f *fakeReasoner) Audit(ctx context.Context, input oracle.AuditInput) (*oracle.InspectionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	report.DegradedAccuracy = input.Degraded
	return &report, nil
}

func (f *fakeReasoner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func passReport() *oracle.InspectionReport {
	return &oracle.InspectionReport{
		Status: oracle.StatusPass,
		Recommendation: oracle.Recommendation{
			Action:   "accept",
			Priority: "low",
		},
	}
}

func newTestOrchestrator(t *testing.T, reasoner Reasoner, repo *db.Repository, collector metrics.Collector) *Orchestrator {
	t.Helper()

	gate, err := sharpness.NewGatekeeper(sharpness.DefaultCalibration(), payloadDecoder{}, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("NewGatekeeper() unexpected error: %v", err)
	}

	o, err := NewOrchestrator(
		Config{Calibration: sharpness.DefaultCalibration(), ModelName: "gpt-4o"},
		gate, nil, reasoner, repo, collector, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("NewOrchestrator() unexpected error: %v", err)
	}
	return o
}

func photoRequest(goods, doc string) Request {
	return Request{
		GoodsImage:   []byte(goods),
		GoodsMIME:    "image/jpeg",
		Document:     []byte(doc),
		DocumentMIME: "image/jpeg",
	}
}

func TestRunSharpPhotosReachOracle(t *testing.T) {
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	result, err := o.Run(context.Background(), photoRequest("sharp", "sharp"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if result.Outcome != OutcomePassed {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomePassed)
	}
	if reasoner.callCount() != 1 {
		t.Errorf("oracle calls = %d, want 1", reasoner.callCount())
	}
	if result.Report == nil || result.Report.Status != oracle.StatusPass {
		t.Errorf("Report = %+v, want pass report", result.Report)
	}
	if result.ID == "" {
		t.Error("ID is empty")
	}
	if result.Report.DegradedAccuracy {
		t.Error("DegradedAccuracy set on a clean pass")
	}
}

func TestRunBlurryPhotoRequestsRetake(t *testing.T) {
	tests := []struct {
		name  string
		goods string
		doc   string
	}{
		{name: "blurry goods", goods: "blurry", doc: "sharp"},
		{name: "blurry document", goods: "sharp", doc: "blurry"},
		{name: "both blurry", goods: "blurry", doc: "blurry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoner := &fakeReasoner{report: passReport()}
			o := newTestOrchestrator(t, reasoner, nil, nil)

			result, err := o.Run(context.Background(), photoRequest(tt.goods, tt.doc))
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}

			if result.Outcome != OutcomeRetake {
				t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeRetake)
			}
			if reasoner.callCount() != 0 {
				t.Errorf("oracle calls = %d, want 0 for a retake", reasoner.callCount())
			}
			if result.Report != nil {
				t.Error("Report set on a retake")
			}
		})
	}
}

func TestRunRetakeSurfacesScoreAndThreshold(t *testing.T) {
	o := newTestOrchestrator(t, &fakeReasoner{report: passReport()}, nil, nil)

	result, err := o.Run(context.Background(), photoRequest("blurry", "sharp"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if !result.Goods.Verdict.IsBlurry {
		t.Error("Goods.Verdict.IsBlurry = false for a blurry photo")
	}
	if result.Goods.Threshold != sharpness.DefaultBlurThreshold {
		t.Errorf("Goods.Threshold = %d, want %d", result.Goods.Threshold, sharpness.DefaultBlurThreshold)
	}
	if result.Goods.Verdict.Score >= sharpness.DefaultBlurThreshold {
		t.Errorf("Score = %d, want below threshold", result.Goods.Verdict.Score)
	}
}

func TestRunForceOverrideProceedsDegraded(t *testing.T) {
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	req := photoRequest("blurry", "sharp")
	req.Force = true

	result, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if result.Outcome != OutcomeOverridden {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeOverridden)
	}
	if reasoner.callCount() != 1 {
		t.Fatalf("oracle calls = %d, want 1", reasoner.callCount())
	}
	if !reasoner.inputs[0].Degraded {
		t.Error("oracle input not marked degraded on override")
	}
	if result.Report == nil || !result.Report.DegradedAccuracy {
		t.Error("report not annotated as degraded accuracy")
	}
}

func TestRunUndecodablePhotoFailsOpen(t *testing.T) {
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	result, err := o.Run(context.Background(), photoRequest("undecodable", "sharp"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if result.Outcome != OutcomeFailOpen {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeFailOpen)
	}
	if reasoner.callCount() != 1 {
		t.Errorf("oracle calls = %d, want 1 on the fail-open path", reasoner.callCount())
	}
	if result.Goods.Verdict.Score != sharpness.SentinelScore {
		t.Errorf("Goods score = %d, want sentinel %d", result.Goods.Verdict.Score, sharpness.SentinelScore)
	}
}

func TestRunPDFDocumentBypassesGate(t *testing.T) {
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	// A malformed PDF bypasses the gate but fails extraction: the audit
	// bounces back for a re-upload instead of sending garbage onward.
	req := Request{
		GoodsImage:   []byte("sharp"),
		GoodsMIME:    "image/jpeg",
		Document:     []byte("%PDF-1.4\nnot a real body"),
		DocumentMIME: "application/pdf",
	}

	result, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatal("Run() expected extraction error for malformed PDF")
	}

	if !result.DocIsPDF {
		t.Error("DocIsPDF = false for a PDF upload")
	}
	if result.Doc.Verdict.Reason != "" {
		t.Errorf("Doc verdict = %+v, want zero value (gate bypassed)", result.Doc.Verdict)
	}
	if result.Outcome != OutcomeRetake {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeRetake)
	}
	if reasoner.callCount() != 0 {
		t.Errorf("oracle calls = %d, want 0", reasoner.callCount())
	}
}

func TestRunOracleFailureSurfaced(t *testing.T) {
	boom := errors.New("service unavailable")
	reasoner := &fakeReasoner{err: boom}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	result, err := o.Run(context.Background(), photoRequest("sharp", "sharp"))
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if result.Report != nil {
		t.Error("Report set despite oracle failure")
	}
	if result.Outcome != OutcomePassed {
		t.Errorf("Outcome = %q, want %q (gate passed before the failure)", result.Outcome, OutcomePassed)
	}
}

func TestRunValidatesInputs(t *testing.T) {
	o := newTestOrchestrator(t, &fakeReasoner{report: passReport()}, nil, nil)

	if _, err := o.Run(context.Background(), Request{Document: []byte("x")}); !errors.Is(err, ErrNoGoodsImage) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoGoodsImage)
	}
	if _, err := o.Run(context.Background(), Request{GoodsImage: []byte("x")}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoDocument)
	}
}

func TestNewOrchestratorRequiresDependencies(t *testing.T) {
	_, err := NewOrchestrator(Config{}, nil, nil, &fakeReasoner{}, nil, nil, logging.NewTestLogger())
	if !errors.Is(err, ErrNilDependency) {
		t.Errorf("NewOrchestrator() error = %v, want %v", err, ErrNilDependency)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	store := metrics.NewStore(metrics.DefaultStoreConfig(), time.Now())
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, store)

	if _, err := o.Run(context.Background(), photoRequest("sharp", "sharp")); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if _, err := o.Run(context.Background(), photoRequest("blurry", "sharp")); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	gate := store.GetGateMetrics()
	if gate.TotalAudits != 2 {
		t.Errorf("TotalAudits = %d, want 2", gate.TotalAudits)
	}
	if gate.Passed != 1 || gate.RetakeRequested != 1 {
		t.Errorf("passed/retake = %d/%d, want 1/1", gate.Passed, gate.RetakeRequested)
	}

	oracleMetrics := store.GetOracleMetrics()
	if oracleMetrics.TotalCalls != 1 || oracleMetrics.Pass != 1 {
		t.Errorf("oracle calls/pass = %d/%d, want 1/1", oracleMetrics.TotalCalls, oracleMetrics.Pass)
	}
}

func TestRunPersistsAuditHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audits.db")
	if err := db.MigrateUpFromPath(path, "file://../db/migrations"); err != nil {
		t.Fatalf("MigrateUpFromPath() unexpected error: %v", err)
	}
	store, err := db.NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase() unexpected error: %v", err)
	}
	defer store.Close()
	repo := db.NewRepository(store, nil)

	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, repo, nil)

	result, err := o.Run(context.Background(), photoRequest("sharp", "sharp"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	rec, err := repo.GetAuditByID(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("GetAuditByID() unexpected error: %v", err)
	}
	if rec.GateOutcome != db.GateOutcomePassed {
		t.Errorf("GateOutcome = %q, want %q", rec.GateOutcome, db.GateOutcomePassed)
	}
	if rec.OracleStatus != string(oracle.StatusPass) {
		t.Errorf("OracleStatus = %q, want pass", rec.OracleStatus)
	}
	if rec.ModelName != "gpt-4o" {
		t.Errorf("ModelName = %q, want gpt-4o", rec.ModelName)
	}
	if rec.ReportJSON == "" {
		t.Error("ReportJSON is empty")
	}
}

func TestRunCancelledContext(t *testing.T) {
	reasoner := &fakeReasoner{report: passReport()}
	o := newTestOrchestrator(t, reasoner, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, photoRequest("sharp", "sharp"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if reasoner.callCount() != 0 {
		t.Errorf("oracle calls = %d, want 0 after cancellation", reasoner.callCount())
	}
}
