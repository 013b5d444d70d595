// Package sharpness implements the image sharpness gatekeeper for
// freightaudit. Before an uploaded photograph is forwarded to the external
// reasoning service, the gatekeeper measures how much high-frequency edge
// content survives in the frame and decides whether the image is sharp
// enough to audit reliably.
//
// calibration.go holds the tuned constants that drive the pipeline. The
// values are empirical: they were calibrated against document photography
// (invoices, delivery notes) and are not validated for general scenes.
package sharpness

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration defaults. Exposed as constants so tests and documentation can
// reference the shipped tuning directly.
const (
	// DefaultTargetWidth is the analysis width every image is normalized to
	// before edge extraction. Downsampling to a fixed width keeps scores
	// comparable across camera resolutions and caps worst-case work.
	//
	// Calibration constraint: the tuning below assumes the source image is
	// downsampled to this width. Sources narrower than the target are
	// analyzed at native width (never upscaled), which leaves their scores
	// slightly out of calibration; such uploads are rare for phone cameras.
	DefaultTargetWidth = 800

	// DefaultNoiseFloor is the Laplacian magnitude at or below which an
	// edge response is attributed to paper texture, lighting gradient or
	// sensor noise rather than real content.
	DefaultNoiseFloor = 15

	// DefaultTopFraction is the share of the strongest surviving edges
	// averaged into the score. Averaging everything is dominated by flat
	// background; the strongest quintile tracks the actual content.
	DefaultTopFraction = 0.2

	// DefaultBlurThreshold is the score below which an image is declared
	// blurry.
	DefaultBlurThreshold = 40

	// DefaultMinSamples is the minimum number of qualifying edges required
	// before the score is meaningful. Below this the frame is blank,
	// saturated or catastrophically out of focus.
	DefaultMinSamples = 100
)

// Calibration validation errors.
var (
	// ErrInvalidTargetWidth indicates a non-positive analysis width.
	ErrInvalidTargetWidth = errors.New("sharpness: target width must be positive")

	// ErrInvalidTopFraction indicates a top fraction outside (0, 1].
	ErrInvalidTopFraction = errors.New("sharpness: top fraction must be in (0, 1]")

	// ErrInvalidNoiseFloor indicates a negative noise floor.
	ErrInvalidNoiseFloor = errors.New("sharpness: noise floor must not be negative")

	// ErrInvalidMinSamples indicates a non-positive minimum sample count.
	ErrInvalidMinSamples = errors.New("sharpness: min samples must be positive")
)

// Calibration holds the tuned parameters of the sharpness pipeline.
//
// All fields are plain values; a Calibration can be copied freely and a
// single instance may be shared by concurrent evaluations.
type Calibration struct {
	// TargetWidth is the fixed analysis width in pixels.
	TargetWidth int `yaml:"target_width"`

	// NoiseFloor gates out Laplacian magnitudes attributable to texture
	// and sensor noise. Only magnitudes strictly above the floor count.
	NoiseFloor int `yaml:"noise_floor"`

	// TopFraction is the fraction of strongest edges averaged into the
	// score.
	TopFraction float64 `yaml:"top_fraction"`

	// BlurThreshold is the verdict cut: score < BlurThreshold means blurry.
	BlurThreshold int `yaml:"blur_threshold"`

	// MinSamples is the minimum qualifying edge count for a measurable
	// image.
	MinSamples int `yaml:"min_samples"`
}

// DefaultCalibration returns the shipped document-photography tuning.
func DefaultCalibration() Calibration {
	return Calibration{
		TargetWidth:   DefaultTargetWidth,
		NoiseFloor:    DefaultNoiseFloor,
		TopFraction:   DefaultTopFraction,
		BlurThreshold: DefaultBlurThreshold,
		MinSamples:    DefaultMinSamples,
	}
}

// Validate checks that the calibration values are usable.
// Returns the first violation found, or nil.
func (c Calibration) Validate() error {
	if c.TargetWidth <= 0 {
		return ErrInvalidTargetWidth
	}
	if c.NoiseFloor < 0 {
		return ErrInvalidNoiseFloor
	}
	if c.TopFraction <= 0 || c.TopFraction > 1 {
		return ErrInvalidTopFraction
	}
	if c.MinSamples <= 0 {
		return ErrInvalidMinSamples
	}
	return nil
}

// LoadCalibrationFile reads calibration overrides from a YAML file.
// Fields absent from the file keep their default values, so a file may
// override a single constant without restating the rest.
//
// Example file:
//
//	noise_floor: 20
//	blur_threshold: 35
func LoadCalibrationFile(path string) (Calibration, error) {
	cal := DefaultCalibration()

	data, err := os.ReadFile(path)
	if err != nil {
		return cal, fmt.Errorf("sharpness: failed to read calibration file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("sharpness: failed to parse calibration file: %w", err)
	}

	if err := cal.Validate(); err != nil {
		return cal, err
	}

	return cal, nil
}
