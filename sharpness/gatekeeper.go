// gatekeeper.go implements the Gatekeeper organism that orchestrates the
// four-stage pipeline:
//
//	Preprocessor -> EdgeMagnitudeComputer -> Aggregator -> Classifier
//
// It composes:
//   - preprocess.go: decode + downscale + grayscale conversion
//   - edges.go: Laplacian magnitudes with noise gate
//   - aggregate.go: top-fraction mean
//   - calibration.go: tuned constants
//   - logging.Logger: structured logging
package sharpness

import (
	"context"

	"freightaudit/logging"

	"go.uber.org/zap"
)

// SentinelScore is the score reported on the fail-open path, where the
// image could not be analyzed at all and the workflow proceeds unverified.
const SentinelScore = 999

// VerdictReason identifies which pipeline path produced a verdict.
type VerdictReason string

const (
	// ReasonMeasured means the full pipeline ran and the score is a real
	// measurement.
	ReasonMeasured VerdictReason = "measured"

	// ReasonDecodeFailure means the payload could not be decoded. The
	// verdict fails open: blocking the user on a technical fault is worse
	// than risking one unverified image.
	ReasonDecodeFailure VerdictReason = "decode_failure"

	// ReasonInsufficientEdges means fewer qualifying edges survived the
	// noise gate than the calibrated minimum. The verdict fails closed
	// through the normal blurry flow (retake or override).
	ReasonInsufficientEdges VerdictReason = "insufficient_edges"

	// ReasonProcessingError means an unexpected fault inside the pipeline
	// was recovered. The verdict fails open, logged only.
	ReasonProcessingError VerdictReason = "processing_error"

	// ReasonCanceled means the caller abandoned the evaluation before it
	// completed. Partial work is discarded; nothing downstream should
	// consume the verdict.
	ReasonCanceled VerdictReason = "canceled"
)

// Verdict is the gatekeeper's decision for a single image. It is
// constructed once per evaluation, handed to the caller and never mutated.
type Verdict struct {
	// IsBlurry reports whether the image failed the sharpness gate.
	IsBlurry bool `json:"isBlurry"`

	// Score is the sharpness score: the floor of the mean of the
	// strongest calibrated fraction of gated edge magnitudes, 0 for
	// immeasurable images, or SentinelScore on the fail-open paths.
	Score int `json:"score"`

	// Reason identifies which path produced the verdict.
	Reason VerdictReason `json:"reason"`
}

// Gatekeeper evaluates image sharpness ahead of the external reasoning
// call.
//
// Thread-Safety:
//   - Gatekeeper is safe for concurrent use.
//   - Each Evaluate call is an independent, stateless computation; no
//     buffers or counters are shared across calls.
type Gatekeeper struct {
	cal     Calibration
	decoder Decoder
	logger  *logging.Logger
}

// NewGatekeeper creates a Gatekeeper with the given calibration. A nil
// decoder selects the stdlib codecs. The logger is required: fail-open
// events are observable only through the log.
func NewGatekeeper(cal Calibration, decoder Decoder, logger *logging.Logger) (*Gatekeeper, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	if decoder == nil {
		decoder = StdDecoder{}
	}

	return &Gatekeeper{
		cal:     cal,
		decoder: decoder,
		logger:  logger.Named("sharpness"),
	}, nil
}

// Calibration returns the calibration the gatekeeper was built with.
func (g *Gatekeeper) Calibration() Calibration {
	return g.cal
}

// Evaluate runs the full pipeline over one image and always resolves to a
// verdict; no error ever crosses this boundary. The error taxonomy maps to
// verdicts as follows:
//
//   - decode failure  -> fail-open  {IsBlurry: false, Score: 999}
//   - too few edges   -> fail-closed {IsBlurry: true, Score: 0}
//   - unexpected panic -> fail-open sentinel, logged
//
// The context is checked between stages; if the caller cancels, the
// remaining work is skipped and a ReasonCanceled verdict is returned. The
// computation holds no external resources, so cancellation has no cleanup.
func (g *Gatekeeper) Evaluate(ctx context.Context, data []byte) (verdict Verdict) {
	// Fail-open on any unexpected fault in the stages below. This is a
	// deliberate policy branch, not incidental suppression: availability
	// of the audit workflow outranks strict gating.
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("sharpness pipeline panic, failing open",
				zap.Any("panic", r))
			verdict = Verdict{IsBlurry: false, Score: SentinelScore, Reason: ReasonProcessingError}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Verdict{IsBlurry: false, Score: SentinelScore, Reason: ReasonCanceled}
	}

	grid, err := Preprocess(g.decoder, data, g.cal.TargetWidth)
	if err != nil {
		g.logger.Warn("image decode failed, failing open",
			zap.Error(err),
			zap.Int("payload_bytes", len(data)))
		return Verdict{IsBlurry: false, Score: SentinelScore, Reason: ReasonDecodeFailure}
	}

	if err := ctx.Err(); err != nil {
		return Verdict{IsBlurry: false, Score: SentinelScore, Reason: ReasonCanceled}
	}

	samples := LaplacianMagnitudes(grid, g.cal.NoiseFloor)

	if err := ctx.Err(); err != nil {
		return Verdict{IsBlurry: false, Score: SentinelScore, Reason: ReasonCanceled}
	}

	score, measurable := Aggregate(samples, g.cal.TopFraction, g.cal.MinSamples)
	if !measurable {
		g.logger.Info("insufficient edge content, declaring blurry",
			zap.Int("qualifying_edges", len(samples)),
			zap.Int("min_samples", g.cal.MinSamples),
			zap.Int("grid_width", grid.Width),
			zap.Int("grid_height", grid.Height))
		return Verdict{IsBlurry: true, Score: 0, Reason: ReasonInsufficientEdges}
	}

	isBlurry := score < g.cal.BlurThreshold

	g.logger.Debug("sharpness measured",
		zap.Int("score", score),
		zap.Bool("is_blurry", isBlurry),
		zap.Int("qualifying_edges", len(samples)),
		zap.Int("grid_width", grid.Width),
		zap.Int("grid_height", grid.Height))

	return Verdict{IsBlurry: isBlurry, Score: score, Reason: ReasonMeasured}
}
