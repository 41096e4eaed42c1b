// Package bootstrap provides dependency initialization for the Tubely API.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maauso/tubely-api/internal/auth"
	"github.com/maauso/tubely-api/internal/config"
	"github.com/maauso/tubely-api/internal/ingest"
	"github.com/maauso/tubely-api/internal/media"
	"github.com/maauso/tubely-api/internal/metrics"
	"github.com/maauso/tubely-api/internal/staging"
	"github.com/maauso/tubely-api/internal/storage"
	"github.com/maauso/tubely-api/internal/video"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	VideoService  *ingest.Service
	Authenticator auth.Authenticator
	Metrics       *metrics.Metrics

	closers []func() error
}

// Close releases resources held by the dependencies.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Metrics: metrics.New()}

	authn, err := auth.NewJWTAuthenticator(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}
	deps.Authenticator = authn

	repo, err := initRepository(ctx, cfg, deps, logger)
	if err != nil {
		return nil, err
	}

	store, err := initObjectStore(ctx, cfg, logger)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}

	stager, err := staging.NewStore(cfg.AssetsRoot)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("create staging store: %w", err)
	}
	logger.Info("staging configured",
		slog.String("assets_root", stager.Root()),
	)

	deps.VideoService = ingest.NewService(
		repo,
		stager,
		media.NewFFprobeInspector(cfg.FFprobePath),
		media.NewFFmpegRemuxer(cfg.FFmpegPath),
		store,
		logger,
		ingest.WithSignedURLTTL(cfg.SignedURLTTL),
		ingest.WithMetrics(deps.Metrics),
	)

	return deps, nil
}

// initRepository opens the SQLite metadata store, or an in-memory one when
// no database path is configured.
func initRepository(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) (video.Repository, error) {
	if cfg.InMemoryStore() {
		logger.Warn("DB_PATH is empty, video records are kept in memory")
		return video.NewMemoryRepository(), nil
	}

	repo, err := video.NewSQLiteRepository(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open video database: %w", err)
	}
	deps.closers = append(deps.closers, repo.Close)

	logger.Info("SQLite metadata store configured",
		slog.String("db_path", cfg.DBPath),
	)
	return repo, nil
}

// initObjectStore creates the configured object store backend.
func initObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMinIO:
		store, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create MinIO storage: %w", err)
		}
		created, err := store.EnsureBucket(ctx)
		if err != nil {
			return nil, fmt.Errorf("prepare MinIO bucket: %w", err)
		}
		logger.Info("MinIO storage configured",
			slog.String("endpoint", cfg.MinIOEndpoint),
			slog.String("bucket", cfg.S3Bucket),
			slog.Bool("bucket_created", created),
		)
		return store, nil

	default:
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return store, nil
	}
}
