package staging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "assets")

		store, err := NewStore(root)
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		if store.Root() != root {
			t.Errorf("Root() = %v, want %v", store.Root(), root)
		}

		info, err := os.Stat(root)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		store, err := NewStore("")
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "tubely")
		if store.Root() != expected {
			t.Errorf("Root() = %v, want %v", store.Root(), expected)
		}
	})
}

func TestStore_Stage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	t.Run("writes data under a random name", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("video bytes")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		defer func() { _ = store.Release(f) }()

		if filepath.Dir(f.Path()) != store.Root() {
			t.Errorf("path %s is not under root %s", f.Path(), store.Root())
		}
		if !strings.HasSuffix(f.Path(), ".mp4") {
			t.Errorf("path %s should end with .mp4", f.Path())
		}
		// 32 random bytes -> 43 base64url characters, plus ".mp4".
		if got := len(filepath.Base(f.Path())); got != 47 {
			t.Errorf("unexpected name length %d for %s", got, filepath.Base(f.Path()))
		}
		if f.Size() != int64(len("video bytes")) {
			t.Errorf("Size() = %d, want %d", f.Size(), len("video bytes"))
		}

		content, err := os.ReadFile(f.Path())
		if err != nil {
			t.Fatalf("failed to read staged file: %v", err)
		}
		if string(content) != "video bytes" {
			t.Errorf("got %q, want %q", string(content), "video bytes")
		}
	})

	t.Run("accepts extension with leading dot", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("x")), ".png")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		defer func() { _ = store.Release(f) }()

		if strings.HasSuffix(f.Path(), "..png") || !strings.HasSuffix(f.Path(), ".png") {
			t.Errorf("unexpected path %s", f.Path())
		}
	})

	t.Run("names are unique", func(t *testing.T) {
		a, err := store.Stage(ctx, bytes.NewReader([]byte("a")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		b, err := store.Stage(ctx, bytes.NewReader([]byte("b")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		defer func() { _ = store.Release(a); _ = store.Release(b) }()

		if a.Path() == b.Path() {
			t.Errorf("expected distinct paths, both were %s", a.Path())
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Stage(ctx, bytes.NewReader([]byte("data")), "mp4")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		assertRootEmpty(t, store)
	})

	t.Run("failed read leaves no files behind", func(t *testing.T) {
		readErr := errors.New("connection reset")
		r := io.MultiReader(bytes.NewReader([]byte("partial")), &failingReader{err: readErr})

		_, err := store.Stage(ctx, r, "mp4")
		if !errors.Is(err, readErr) {
			t.Errorf("expected %v, got %v", readErr, err)
		}
		assertRootEmpty(t, store)
	})

	t.Run("cancellation mid-copy leaves no files behind", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := &cancelAfterFirstRead{cancel: cancel, data: []byte("first chunk")}

		_, err := store.Stage(ctx, r, "mp4")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		assertRootEmpty(t, store)
	})
}

func TestStore_Release(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	t.Run("removes file", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("data")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}

		if err := store.Release(f); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
			t.Errorf("file %s still exists", f.Path())
		}
		if !f.Released() {
			t.Error("expected file to be marked released")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("data")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}

		if err := store.Release(f); err != nil {
			t.Fatalf("first Release() error = %v", err)
		}
		if err := store.Release(f); err != nil {
			t.Errorf("second Release() should be a no-op, got %v", err)
		}
	})

	t.Run("ignores already removed path", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("data")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		if err := os.Remove(f.Path()); err != nil {
			t.Fatalf("remove: %v", err)
		}

		if err := store.Release(f); err != nil {
			t.Errorf("Release() should ignore missing files, got %v", err)
		}
	})

	t.Run("nil file", func(t *testing.T) {
		if err := store.Release(nil); err != nil {
			t.Errorf("Release(nil) error = %v", err)
		}
	})

	t.Run("released file cannot be opened", func(t *testing.T) {
		f, err := store.Stage(ctx, bytes.NewReader([]byte("data")), "mp4")
		if err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		if err := store.Release(f); err != nil {
			t.Fatalf("Release() error = %v", err)
		}

		_, err = f.Open()
		if !errors.Is(err, ErrReleased) {
			t.Errorf("expected ErrReleased, got %v", err)
		}
	})
}

func TestStore_Adopt(t *testing.T) {
	store := setupTestStore(t)

	t.Run("tracks an existing file", func(t *testing.T) {
		path := filepath.Join(store.Root(), "input.mp4.processed")
		if err := os.WriteFile(path, []byte("remuxed"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		f, err := store.Adopt(path)
		if err != nil {
			t.Fatalf("Adopt() error = %v", err)
		}
		if f.Size() != int64(len("remuxed")) {
			t.Errorf("Size() = %d, want %d", f.Size(), len("remuxed"))
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		content, _ := io.ReadAll(rc)
		_ = rc.Close()
		if string(content) != "remuxed" {
			t.Errorf("got %q, want %q", content, "remuxed")
		}

		if err := store.Release(f); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
	})

	t.Run("rejects directories", func(t *testing.T) {
		_, err := store.Adopt(t.TempDir())
		if !errors.Is(err, ErrNotRegularFile) {
			t.Errorf("expected ErrNotRegularFile, got %v", err)
		}
	})

	t.Run("rejects missing paths", func(t *testing.T) {
		_, err := store.Adopt(filepath.Join(store.Root(), "missing"))
		if err == nil {
			t.Error("expected error for missing path")
		}
	})
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func assertRootEmpty(t *testing.T, store *Store) {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range entries {
		t.Errorf("unexpected leftover file %s", e.Name())
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

type cancelAfterFirstRead struct {
	cancel context.CancelFunc
	data   []byte
	done   bool
}

func (r *cancelAfterFirstRead) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	n := copy(p, r.data)
	r.cancel()
	return n, nil
}
