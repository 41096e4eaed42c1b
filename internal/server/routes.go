package server

import (
	"log/slog"
	"net/http"

	"github.com/maauso/tubely-api/internal/auth"
	"github.com/maauso/tubely-api/internal/metrics"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// Everything under /api requires a bearer token. m may be nil, in which case
// /metrics is not served.
func NewRouter(h *Handlers, authn auth.Authenticator, m *metrics.Metrics, logger *slog.Logger, cfg Config) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	protected := AuthMiddleware(authn, logger)
	mux.Handle("POST /api/videos", protected(http.HandlerFunc(h.CreateVideo)))
	mux.Handle("GET /api/videos", protected(http.HandlerFunc(h.ListVideos)))
	mux.Handle("GET /api/videos/{videoID}", protected(http.HandlerFunc(h.GetVideo)))
	mux.Handle("POST /api/videos/{videoID}/upload", protected(http.HandlerFunc(h.UploadVideo)))
	mux.Handle("POST /api/thumbnail_upload/{videoID}", protected(http.HandlerFunc(h.UploadThumbnail)))

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		metrics.RequestMiddleware(m),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
