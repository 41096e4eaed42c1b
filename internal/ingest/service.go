package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/maauso/tubely-api/internal/apperr"
	"github.com/maauso/tubely-api/internal/media"
	"github.com/maauso/tubely-api/internal/metrics"
	"github.com/maauso/tubely-api/internal/staging"
	"github.com/maauso/tubely-api/internal/storage"
	"github.com/maauso/tubely-api/internal/video"
)

// Stager stages upload bytes on local disk. *staging.Store implements it.
type Stager interface {
	Stage(ctx context.Context, data io.Reader, ext string) (*staging.File, error)
	Adopt(path string) (*staging.File, error)
	Release(f *staging.File) error
}

// Service coordinates video records, the media tools and the object store.
type Service struct {
	repo      video.Repository
	stager    Stager
	inspector media.Inspector
	remuxer   media.Remuxer
	store     storage.ObjectStore
	signer    *Signer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSignedURLTTL sets the lifetime of signed URLs in responses.
func WithSignedURLTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.signer = NewSigner(s.store, ttl)
	}
}

// WithMetrics records pipeline metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service.
func NewService(
	repo video.Repository,
	stager Stager,
	inspector media.Inspector,
	remuxer media.Remuxer,
	store storage.ObjectStore,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		stager:    stager,
		inspector: inspector,
		remuxer:   remuxer,
		store:     store,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.signer = NewSigner(store, DefaultSignedURLTTL)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signer returns the signer used for responses.
func (s *Service) Signer() *Signer {
	return s.signer
}

// CreateVideo creates a draft record owned by ownerID.
func (s *Service) CreateVideo(ctx context.Context, ownerID, title, description string) (SignedVideo, error) {
	v := video.New(ownerID, title, description)

	if err := s.repo.Create(ctx, v); err != nil {
		s.logger.Error("failed to create video",
			slog.String("video_id", v.ID),
			slog.String("error", err.Error()),
		)
		return SignedVideo{}, apperr.Storage("failed to create video", err)
	}

	s.logger.Info("video created",
		slog.String("video_id", v.ID),
		slog.String("owner_id", ownerID),
	)
	return unsigned(v), nil
}

// GetVideo returns a record owned by ownerID with signed URLs.
func (s *Service) GetVideo(ctx context.Context, ownerID, videoID string) (SignedVideo, error) {
	record, err := s.findRecord(ctx, videoID)
	if err != nil {
		return SignedVideo{}, err
	}
	if err := authorize(ownerID, record); err != nil {
		return SignedVideo{}, err
	}
	return s.sign(ctx, record)
}

// ListVideos returns the records owned by ownerID, newest first, with
// signed URLs.
func (s *Service) ListVideos(ctx context.Context, ownerID string) ([]SignedVideo, error) {
	records, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Storage("failed to list videos", err)
	}

	out := make([]SignedVideo, 0, len(records))
	for _, r := range records {
		signed, err := s.sign(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, signed)
	}
	return out, nil
}

// findRecord loads a record, returning nil without error when it does not
// exist so the validator decides how to report it.
func (s *Service) findRecord(ctx context.Context, videoID string) (*video.Video, error) {
	record, err := s.repo.FindByID(ctx, videoID)
	if errors.Is(err, video.ErrVideoNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("failed to load video", err)
	}
	return record, nil
}

func (s *Service) sign(ctx context.Context, v *video.Video) (SignedVideo, error) {
	signed, err := s.signer.Sign(ctx, v)
	if err != nil {
		return SignedVideo{}, apperr.Storage("failed to sign video urls", err)
	}
	return signed, nil
}

// recordAsset writes a confirmed storage key into the record. A failure
// leaves the object in the store and is reported as ErrRecordNotUpdated.
func (s *Service) recordAsset(ctx context.Context, record *video.Video, key string, apply func(*video.Video)) error {
	apply(record)
	record.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("object stored but video record not updated",
			slog.String("video_id", record.ID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return apperr.Storage("failed to update video", errors.Join(ErrRecordNotUpdated, err))
	}
	return nil
}

// outcome labels an upload result for metrics.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperr.KindOf(err).String()
}
