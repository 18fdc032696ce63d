// Package bootstrap provides dependency initialization for the clipforge API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/clipforge/clipforge-api/internal/config"
	"github.com/clipforge/clipforge-api/internal/job"
	"github.com/clipforge/clipforge-api/internal/project"
	"github.com/clipforge/clipforge-api/internal/runner"
	"github.com/clipforge/clipforge-api/internal/storage"
	"github.com/clipforge/clipforge-api/internal/workspace"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	JobService   *job.Service
	Registry     *project.Registry
	ProjectStore project.Store
	// LocalFilesDir is set when artifacts are stored on local disk and
	// need to be served by the HTTP server.
	LocalFilesDir string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	store, err := initStorage(cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewManager(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create workspace manager: %w", err)
	}

	scriptRunner := runner.NewScriptRunner(cfg.PythonBin, cfg.ScriptsDir)

	deps.JobService = job.NewService(
		scriptRunner,
		ws,
		store,
		logger,
		job.WithTimeout(cfg.JobTimeout),
		job.WithMaxJobsPerUser(cfg.MaxJobsPerUser),
	)
	deps.Registry = project.NewRegistry()
	deps.ProjectStore = project.NewStubStore()

	return deps, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger, deps *Dependencies) (storage.ObjectStore, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 store: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.LocalStoreDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	deps.LocalFilesDir = localStore.RootDir()
	logger.Info("local storage configured",
		slog.String("root_dir", localStore.RootDir()),
	)
	return localStore, nil
}
