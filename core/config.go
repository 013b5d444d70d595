package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"freightaudit/sharpness"
)

// Config holds all runtime configuration for the audit backend.
type Config struct {
	// Oracle (external multimodal reasoning service) settings.
	OracleAPIKey  string
	OracleBaseURL string // OpenAI-compatible endpoint; empty means the default cloud API
	OracleModel   string

	// HTTP server settings.
	Port          int
	Host          string
	WebUIPassword string

	// Storage.
	DataDir      string
	DatabasePath string

	// RetentionDays is how long audit history rows are kept before the
	// daily cleanup removes them. Zero disables cleanup.
	RetentionDays int

	// Sharpness gate calibration, assembled from defaults, an optional
	// YAML file and env overrides.
	Calibration     sharpness.Calibration
	CalibrationFile string

	// Processing limits.
	MaxUploadSize        int64
	OracleTimeout        time.Duration
	MaxConcurrentAudits  int
	AllowSelfSignedCerts bool

	// DevMode enables debug logging and the human-readable console format.
	DevMode bool
}

// LoadConfig assembles configuration from environment variables, applying
// documented defaults. godotenv is loaded by main before this is called, so
// a local .env file behaves like real environment variables.
//
// Calibration resolution order: package defaults, then the YAML file named
// by SHARPNESS_CALIBRATION_FILE (if set), then individual SHARPNESS_* env
// overrides.
func LoadConfig() (*Config, error) {
	dataDir := GetEnvOrDefault("DATA_DIR", "./data")

	cfg := &Config{
		OracleAPIKey:  os.Getenv("ORACLE_API_KEY"),
		OracleBaseURL: os.Getenv("ORACLE_BASE_URL"),
		OracleModel:   GetEnvOrDefault("ORACLE_MODEL", "gpt-4o"),

		Port:          ParseIntEnv("PORT", 8080),
		Host:          GetEnvOrDefault("HOST", "localhost"),
		WebUIPassword: os.Getenv("WEBUI_PASSWORD"),

		DataDir:       dataDir,
		DatabasePath:  GetEnvOrDefault("DATABASE_PATH", dataDir+"/freightaudit.db"),
		RetentionDays: ParseIntEnv("RETENTION_DAYS", 90),

		CalibrationFile: os.Getenv("SHARPNESS_CALIBRATION_FILE"),

		MaxUploadSize:        ParseInt64Env("MAX_UPLOAD_SIZE", 20*1024*1024),
		OracleTimeout:        ParseDurationEnv("ORACLE_TIMEOUT", 120*time.Second),
		MaxConcurrentAudits:  ParseIntEnv("MAX_CONCURRENT_AUDITS", 4),
		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),

		DevMode: ParseBoolEnv("DEV_MODE", false),
	}

	cal := sharpness.DefaultCalibration()
	if cfg.CalibrationFile != "" {
		loaded, err := sharpness.LoadCalibrationFile(cfg.CalibrationFile)
		if err != nil {
			return nil, fmt.Errorf("core: calibration file %s: %w", cfg.CalibrationFile, err)
		}
		cal = loaded
	}

	// Individual env overrides take precedence over the file.
	cal.TargetWidth = ParseIntEnv("SHARPNESS_TARGET_WIDTH", cal.TargetWidth)
	cal.NoiseFloor = ParseIntEnv("SHARPNESS_NOISE_FLOOR", cal.NoiseFloor)
	cal.TopFraction = ParseFloat64Env("SHARPNESS_TOP_FRACTION", cal.TopFraction)
	cal.BlurThreshold = ParseIntEnv("SHARPNESS_BLUR_THRESHOLD", cal.BlurThreshold)
	cal.MinSamples = ParseIntEnv("SHARPNESS_MIN_SAMPLES", cal.MinSamples)

	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("core: invalid sharpness calibration: %w", err)
	}
	cfg.Calibration = cal

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("core: invalid port %d", cfg.Port)
	}
	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("core: RETENTION_DAYS cannot be negative, got %d", cfg.RetentionDays)
	}

	return cfg, nil
}

// GetHTTPClient returns an HTTP client with the given timeout, configured
// per the TLS settings. Self-signed certificates are only honored when the
// deployment explicitly opts in.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
