// Package staging owns the local files an upload passes through before it
// reaches the object store. Every file is written under a single root
// directory with a crypto-random name, so concurrent requests never collide
// and never need to coordinate.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/maauso/tubely-api/internal/randid"
)

// ErrReleased is returned when a released file is accessed again.
var ErrReleased = errors.New("staged file already released")

// ErrNotRegularFile is returned when a path handed to Adopt is not a regular file.
var ErrNotRegularFile = errors.New("staged path is not a regular file")

// File is an exclusively owned local artifact. It stays on disk until
// Release is called on the Store that produced it.
type File struct {
	path     string
	size     int64
	released atomic.Bool
}

// Path returns the absolute location of the file.
func (f *File) Path() string {
	return f.path
}

// Size returns the size of the file in bytes at the time it was staged.
func (f *File) Size() int64 {
	return f.size
}

// Released reports whether the file has been released.
func (f *File) Released() bool {
	return f.released.Load()
}

// Open opens the file for reading. It fails with ErrReleased once the file
// has been released.
func (f *File) Open() (*os.File, error) {
	if f.released.Load() {
		return nil, ErrReleased
	}
	fh, err := os.Open(f.path) // #nosec G304 - path is generated by Store
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	return fh, nil
}

// Store writes and releases staged files under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root. If root is empty, a directory
// under os.TempDir() is used. The directory is created if it doesn't exist.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "tubely")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve staging root: %w", err)
	}

	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	return &Store{root: abs}, nil
}

// Root returns the staging root directory.
func (s *Store) Root() string {
	return s.root
}

// Stage copies data into a new file named <random>.<ext> under the root.
// The bytes are written to a hidden temporary file first and renamed into
// place once complete, so a failed or cancelled write never leaves a
// partially written file at the returned location.
func (s *Store) Stage(ctx context.Context, data io.Reader, ext string) (*File, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	name, err := randid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate staged file name: %w", err)
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}

	tmp, err := os.CreateTemp(s.root, ".partial-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, &contextReader{ctx: ctx, r: data})
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close staged file: %w", err)
	}

	path := filepath.Join(s.root, name)
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("move staged file into place: %w", err)
	}

	return &File{path: path, size: size}, nil
}

// Adopt takes ownership of a file produced by another component, such as a
// media tool writing next to a staged input. The path must be a regular file.
func (s *Store) Adopt(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat adopted file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return &File{path: path, size: info.Size()}, nil
}

// Release deletes the file. It is idempotent: releasing a nil file, a file
// that was already released, or a file whose path no longer exists is not
// an error. Release does not observe cancellation.
func (s *Store) Release(f *File) error {
	if f == nil || f.released.Swap(true) {
		return nil
	}

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.released.Store(false)
		return fmt.Errorf("remove staged file %s: %w", f.path, err)
	}
	return nil
}

// contextReader stops an in-flight copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	return c.r.Read(p)
}
