package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/maauso/tubely-api/internal/storage"
	"github.com/maauso/tubely-api/internal/video"
)

// Signer turns stored object keys into time-limited URLs. URLs are derived on
// every call and never persisted.
type Signer struct {
	presigner storage.Presigner
	ttl       time.Duration
}

// NewSigner creates a Signer. A non-positive ttl falls back to
// DefaultSignedURLTTL.
func NewSigner(presigner storage.Presigner, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Signer{presigner: presigner, ttl: ttl}
}

// TTL returns the lifetime of the URLs produced by Sign.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns the response view of v. Empty keys stay empty: a record
// without a stored asset has no URL, which is not an error.
func (s *Signer) Sign(ctx context.Context, v *video.Video) (SignedVideo, error) {
	out := unsigned(v)

	var err error
	if out.VideoURL, err = s.url(ctx, v.VideoKey); err != nil {
		return SignedVideo{}, err
	}
	if out.ThumbnailURL, err = s.url(ctx, v.ThumbnailKey); err != nil {
		return SignedVideo{}, err
	}
	return out, nil
}

func (s *Signer) url(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	u, err := s.presigner.PresignGet(ctx, key, s.ttl)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return u, nil
}
