package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"freightaudit/audit"
	"freightaudit/core"
	"freightaudit/db"
	"freightaudit/docextract"
	"freightaudit/logging"
	"freightaudit/metrics"
	"freightaudit/oracle"
	"freightaudit/sharpness"
	"freightaudit/shutdown"
	"freightaudit/webui"
	"freightaudit/webui/auth"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Version is the release version, stamped by the build.
var Version = "dev"

func main() {
	// Service management commands (install/uninstall/...) short-circuit
	// normal startup.
	if HandleServiceCommand(os.Args) {
		return
	}
	if ranAsService, err := RunAsService(); ranAsService {
		if err != nil {
			fmt.Fprintf(os.Stderr, "service error: %v\n", err)
			os.Exit(core.ExitCodeError)
		}
		return
	}

	os.Exit(run())
}

// run contains the real startup sequence; separated from main so deferred
// cleanup runs before the process exits.
func run() int {
	// Load .env if present; a missing file is not an error.
	if err := godotenv.Load(); err != nil {
		fmt.Printf("no .env file loaded: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "freightaudit.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("starting freight audit backend",
		zap.String("version", Version),
		zap.String("addr", fmt.Sprintf("%s:%d", config.Host, config.Port)),
		zap.String("model", config.OracleModel),
		zap.String("api_key", oracle.MaskAPIKey(config.OracleAPIKey)),
		zap.String("database", config.DatabasePath),
		zap.Int("blur_threshold", config.Calibration.BlurThreshold),
		zap.Bool("dev_mode", isDevelopment),
	)

	result := core.NewValidationSuite(config).Validate()
	if !result.Success {
		for _, step := range result.Steps {
			if step.Status == core.StepFailed {
				logger.Error("startup check failed",
					zap.String("check", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Err))
			}
		}
		return core.ExitCodeError
	}
	logger.Info("startup checks passed",
		zap.Int("passed", result.PassedSteps),
		zap.Duration("duration", result.Duration))

	manager := shutdown.NewManager(logger, shutdown.WithTimeout(60*time.Second))

	// Storage: SQLite in WAL mode, migrated on startup.
	database, err := db.NewDatabase(config.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return core.ExitCodeError
	}
	if err := database.Migrate(); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		database.Close()
		return core.ExitCodeError
	}

	repo := db.NewRepository(database, nil)
	writer := db.NewAsyncWriter(repo.CreateAsyncWriteHandler())
	repo = db.NewRepository(database, writer)
	writer.Start()

	// Drain queued audit writes before the database closes.
	manager.Register("async-writer", 20, func(ctx context.Context) error {
		if !writer.StopWithTimeout(10 * time.Second) {
			return errors.New("async writer did not drain in time")
		}
		return nil
	})
	manager.Register("audit-store", 30, func(ctx context.Context) error {
		return database.Close()
	})

	store := metrics.NewStore(metrics.StoreConfig{
		HistoryCapacity: 100,
		Version:         Version,
	}, time.Now())

	gate, err := sharpness.NewGatekeeper(config.Calibration, nil, logger)
	if err != nil {
		logger.Error("failed to build sharpness gate", zap.Error(err))
		return core.ExitCodeError
	}

	extractor := docextract.NewExtractor(docextract.DefaultExtractorConfig())

	var reasoner audit.Reasoner
	if config.OracleAPIKey != "" {
		clientConfig := oracle.DefaultClientConfig(config.OracleAPIKey)
		clientConfig.BaseURL = config.OracleBaseURL
		clientConfig.Model = config.OracleModel
		clientConfig.MaxImageSize = config.MaxUploadSize
		clientConfig.HTTPClient = core.GetHTTPClient(config, config.OracleTimeout)

		client, err := oracle.NewClient(clientConfig, logger)
		if err != nil {
			logger.Error("failed to build oracle client", zap.Error(err))
			return core.ExitCodeError
		}
		reasoner = client
	} else {
		// Validation already warned; the gate and history keep working.
		reasoner = unavailableReasoner{}
	}

	orchestrator, err := audit.NewOrchestrator(
		audit.Config{
			Calibration: config.Calibration,
			ModelName:   config.OracleModel,
		},
		gate, extractor, reasoner, repo, store, logger,
	)
	if err != nil {
		logger.Error("failed to build audit orchestrator", zap.Error(err))
		return core.ExitCodeError
	}

	runner := &managedRunner{
		orchestrator: orchestrator,
		manager:      manager,
		slots:        make(chan struct{}, config.MaxConcurrentAudits),
	}

	api, err := webui.NewAuditAPI(
		webui.AuditAPIConfig{MaxUploadSize: config.MaxUploadSize},
		runner, repo, database, store, logger,
	)
	if err != nil {
		logger.Error("failed to build audit API", zap.Error(err))
		return core.ExitCodeError
	}

	var authProvider webui.AuthProvider
	if config.WebUIPassword != "" {
		middleware, err := auth.NewMiddleware(config.WebUIPassword, logger)
		if err != nil {
			logger.Error("failed to build auth middleware", zap.Error(err))
			return core.ExitCodeError
		}
		middleware.SessionStore().StartCleanupTicker(manager.Context(), 15*time.Minute)
		middleware.RateLimiter().StartCleanupTicker(manager.Context(), 15*time.Minute)
		authProvider = middleware
	} else {
		logger.Warn("WEBUI_PASSWORD not set, dashboard runs without authentication")
	}

	server, err := webui.NewServer(webui.ServerConfig{
		Port: config.Port,
		Host: config.Host,
	}, api, authProvider, logger)
	if err != nil {
		logger.Error("failed to build web server", zap.Error(err))
		return core.ExitCodeError
	}

	manager.Register("http-server", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("web server failed", zap.Error(err))
		}
	}()

	if config.RetentionDays > 0 {
		go runRetentionCleanup(manager.Context(), database, config.RetentionDays, logger)
	}

	store.SetHealthy(true)
	manager.Start()
	manager.Wait()

	store.SetHealthy(false)
	if err := manager.Shutdown(); err != nil {
		logger.Error("shutdown finished with errors", zap.Error(err))
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

// managedRunner funnels audit requests through the shutdown tracker and a
// concurrency cap before they reach the orchestrator.
type managedRunner struct {
	orchestrator *audit.Orchestrator
	manager      *shutdown.Manager
	slots        chan struct{}
}

func (m *managedRunner) Run(ctx context.Context, req audit.Request) (audit.Result, error) {
	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-ctx.Done():
		return audit.Result{}, ctx.Err()
	}

	var result audit.Result
	err := m.manager.WrapOperation(ctx, "audit-upload", func(ctx context.Context) error {
		var runErr error
		result, runErr = m.orchestrator.Run(ctx, req)
		return runErr
	})
	return result, err
}

// unavailableReasoner stands in when no oracle credentials are configured.
type unavailableReasoner struct{}

func (unavailableReasoner) Audit(ctx context.Context, input oracle.AuditInput) (*oracle.InspectionReport, error) {
	return nil, oracle.ErrNoAPIKey
}

// runRetentionCleanup deletes audit rows older than the retention window,
// once at startup and then daily.
func runRetentionCleanup(ctx context.Context, database *db.Database, retentionDays int, logger *logging.Logger) {
	log := logger.Named("retention")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		result, err := database.CleanupWithContext(ctx, retentionDays)
		if err != nil {
			log.Error("retention cleanup failed", zap.Error(err))
		} else if result.AuditsDeleted > 0 {
			log.Info("retention cleanup completed",
				zap.Int64("deleted", result.AuditsDeleted),
				zap.Duration("duration", result.Duration))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
