package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// StepStatus is the outcome of a single validation step.
type StepStatus string

const (
	// StepPassed means the check succeeded.
	StepPassed StepStatus = "passed"
	// StepFailed means the check failed and startup should abort.
	StepFailed StepStatus = "failed"
	// StepWarning means the check found a degraded but workable setup.
	StepWarning StepStatus = "warning"
)

// ValidationStep records the result of one startup check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Err     error
}

// ValidationResult aggregates all startup checks.
type ValidationResult struct {
	Success     bool
	Steps       []ValidationStep
	PassedSteps int
	FailedSteps int
	Duration    time.Duration
}

// ValidationSuite runs the startup checks for the audit backend:
// configuration sanity, data directory writability, oracle credentials and
// calibration bounds. Progress is printed with colored markers so an
// operator can see at a glance which check failed.
type ValidationSuite struct {
	cfg          *Config
	showProgress bool
}

// NewValidationSuite creates a suite for the given configuration.
func NewValidationSuite(cfg *Config) *ValidationSuite {
	return &ValidationSuite{cfg: cfg, showProgress: true}
}

// WithShowProgress enables or disables console progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// Validate runs every check and returns the aggregated result. Warnings do
// not fail the suite; only StepFailed does.
func (s *ValidationSuite) Validate() ValidationResult {
	start := time.Now()

	steps := []ValidationStep{
		s.checkDataDir(),
		s.checkOracleCredentials(),
		s.checkCalibration(),
		s.checkUploadLimit(),
	}

	result := ValidationResult{Success: true, Steps: steps}
	for _, step := range steps {
		switch step.Status {
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		default:
			result.PassedSteps++
		}
		if s.showProgress {
			printStep(step)
		}
	}

	result.Duration = time.Since(start)
	return result
}

// checkDataDir verifies the data directory exists (creating it if needed)
// and is writable.
func (s *ValidationSuite) checkDataDir() ValidationStep {
	step := ValidationStep{Name: "data directory"}

	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		step.Status = StepFailed
		step.Message = fmt.Sprintf("cannot create %s", s.cfg.DataDir)
		step.Err = err
		return step
	}

	probe := filepath.Join(s.cfg.DataDir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		step.Status = StepFailed
		step.Message = fmt.Sprintf("%s is not writable", s.cfg.DataDir)
		step.Err = err
		return step
	}
	os.Remove(probe)

	step.Status = StepPassed
	return step
}

// checkOracleCredentials verifies an API key is configured. A missing key
// is a warning, not a failure: the gate and history features still work,
// only oracle calls will be rejected.
func (s *ValidationSuite) checkOracleCredentials() ValidationStep {
	step := ValidationStep{Name: "oracle credentials"}

	if s.cfg.OracleAPIKey == "" {
		step.Status = StepWarning
		step.Message = "ORACLE_API_KEY not set; audits cannot reach the reasoning service"
		return step
	}

	step.Status = StepPassed
	return step
}

// checkCalibration re-validates the assembled calibration so a bad env
// override fails loudly at startup rather than per request.
func (s *ValidationSuite) checkCalibration() ValidationStep {
	step := ValidationStep{Name: "sharpness calibration"}

	if err := s.cfg.Calibration.Validate(); err != nil {
		step.Status = StepFailed
		step.Message = err.Error()
		step.Err = err
		return step
	}

	step.Status = StepPassed
	return step
}

// checkUploadLimit sanity-checks the upload cap.
func (s *ValidationSuite) checkUploadLimit() ValidationStep {
	step := ValidationStep{Name: "upload size limit"}

	if s.cfg.MaxUploadSize <= 0 {
		step.Status = StepFailed
		step.Message = fmt.Sprintf("MAX_UPLOAD_SIZE must be positive, got %d", s.cfg.MaxUploadSize)
		return step
	}

	step.Status = StepPassed
	return step
}

func printStep(step ValidationStep) {
	switch step.Status {
	case StepPassed:
		color.Green("  ✓ %s", step.Name)
	case StepWarning:
		color.Yellow("  ! %s: %s", step.Name, step.Message)
	case StepFailed:
		color.Red("  ✗ %s: %s", step.Name, step.Message)
	}
}
