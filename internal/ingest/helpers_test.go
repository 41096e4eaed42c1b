package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/tubely-api/internal/media"
	"github.com/maauso/tubely-api/internal/staging"
	"github.com/maauso/tubely-api/internal/video"
)

const testOwner = "owner-1"

// mockStore records Put calls with testify and signs deterministically.
type mockStore struct {
	mock.Mock

	mu         sync.Mutex
	objects    map[string][]byte
	presignErr error
}

func newMockStore() *mockStore {
	return &mockStore{objects: make(map[string][]byte)}
}

func (m *mockStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	args := m.Called(ctx, key, size, contentType)
	if err := args.Error(0); err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *mockStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return fmt.Sprintf("https://objects.test/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (m *mockStore) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// fakeRemuxer writes path+".processed" holding "faststart:" + input.
type fakeRemuxer struct {
	calls int
	err   error
	hook  func()
}

func (r *fakeRemuxer) FastStart(ctx context.Context, path string) (string, error) {
	r.calls++
	if r.hook != nil {
		r.hook()
	}
	if r.err != nil {
		return "", r.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	out := path + media.ProcessedSuffix
	if err := os.WriteFile(out, append([]byte("faststart:"), raw...), 0600); err != nil {
		return "", err
	}
	return out, nil
}

type fakeInspector struct {
	calls      int
	dims       media.Dimensions
	err        error
	probedPath string
	probed     []byte
}

func (i *fakeInspector) Probe(_ context.Context, path string) (media.Dimensions, error) {
	i.calls++
	i.probedPath = path
	i.probed, _ = os.ReadFile(path)
	if i.err != nil {
		return media.Dimensions{}, i.err
	}
	return i.dims, nil
}

// failingRepo fails every Update.
type failingRepo struct {
	*video.MemoryRepository
	updateErr error
}

func (r *failingRepo) Update(context.Context, *video.Video) error {
	return r.updateErr
}

type fixture struct {
	svc       *Service
	repo      *video.MemoryRepository
	stager    *staging.Store
	remuxer   *fakeRemuxer
	inspector *fakeInspector
	store     *mockStore
	record    *video.Video
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	stager, err := staging.NewStore(t.TempDir())
	require.NoError(t, err)

	repo := video.NewMemoryRepository()
	record := video.New(testOwner, "Boots", "a walkthrough")
	require.NoError(t, repo.Create(context.Background(), record))

	f := &fixture{
		repo:      repo,
		stager:    stager,
		remuxer:   &fakeRemuxer{},
		inspector: &fakeInspector{dims: media.Dimensions{Width: 1920, Height: 1080}},
		store:     newMockStore(),
		record:    record,
	}
	f.build(repo, opts...)
	return f
}

func (f *fixture) build(repo video.Repository, opts ...Option) {
	f.svc = NewService(repo, f.stager, f.inspector, f.remuxer, f.store, discardLogger(), opts...)
}

func (f *fixture) stored(t *testing.T) *video.Video {
	t.Helper()
	v, err := f.repo.FindByID(context.Background(), f.record.ID)
	require.NoError(t, err)
	return v
}

// stagedEntries lists everything left in the staging root.
func (f *fixture) stagedEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.stager.Root())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
