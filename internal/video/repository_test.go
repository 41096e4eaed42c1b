package video

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// repositoryFactories lets every behavior below run against each Repository implementation.
func repositoryFactories(t *testing.T) map[string]func(t *testing.T) Repository {
	t.Helper()
	return map[string]func(t *testing.T) Repository{
		"memory": func(t *testing.T) Repository {
			return NewMemoryRepository()
		},
		"sqlite": func(t *testing.T) Repository {
			repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "videos.db"))
			if err != nil {
				t.Fatalf("NewSQLiteRepository() error = %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	}
}

func TestRepository_CreateAndFind(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			v := New("user-1", "Boot.dev", "a video")

			if err := repo.Create(ctx, v); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			saved, err := repo.FindByID(ctx, v.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if saved.ID != v.ID || saved.OwnerID != "user-1" || saved.Title != "Boot.dev" {
				t.Errorf("unexpected video %+v", saved)
			}
			if saved.VideoKey != "" {
				t.Errorf("expected empty video key, got %q", saved.VideoKey)
			}
		})
	}
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := newRepo(t).FindByID(context.Background(), "nonexistent")
			if !errors.Is(err, ErrVideoNotFound) {
				t.Errorf("expected ErrVideoNotFound, got %v", err)
			}
		})
	}
}

func TestRepository_Update(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			v := New("user-1", "title", "")
			_ = repo.Create(ctx, v)

			v.VideoKey = "landscape/abc.mp4"
			v.ThumbnailKey = "thumbnails/abc.png"
			if err := repo.Update(ctx, v); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			saved, _ := repo.FindByID(ctx, v.ID)
			if saved.VideoKey != "landscape/abc.mp4" {
				t.Errorf("expected video key to be updated, got %q", saved.VideoKey)
			}
			if saved.ThumbnailKey != "thumbnails/abc.png" {
				t.Errorf("expected thumbnail key to be updated, got %q", saved.ThumbnailKey)
			}
		})
	}
}

func TestRepository_Update_NotFound(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			err := newRepo(t).Update(context.Background(), New("user-1", "ghost", ""))
			if !errors.Is(err, ErrVideoNotFound) {
				t.Errorf("expected ErrVideoNotFound, got %v", err)
			}
		})
	}
}

func TestRepository_ListByOwner(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			older := New("user-1", "older", "")
			older.CreatedAt = time.Now().Add(-time.Hour).UTC()
			newer := New("user-1", "newer", "")
			other := New("user-2", "other", "")
			for _, v := range []*Video{older, newer, other} {
				if err := repo.Create(ctx, v); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			list, err := repo.ListByOwner(ctx, "user-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("expected 2 videos, got %d", len(list))
			}
			if list[0].ID != newer.ID || list[1].ID != older.ID {
				t.Errorf("expected newest first, got %s, %s", list[0].Title, list[1].Title)
			}

			empty, err := repo.ListByOwner(ctx, "nobody")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("expected no videos, got %d", len(empty))
			}
		})
	}
}

// Concurrent writers to the same record are last-write-wins; no conflict is detected.
func TestRepository_ConcurrentUpdates_LastWriteWins(t *testing.T) {
	for name, newRepo := range repositoryFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			v := New("user-1", "contended", "")
			_ = repo.Create(ctx, v)

			keys := []string{"landscape/a.mp4", "portrait/b.mp4", "other/c.mp4"}
			var wg sync.WaitGroup
			for _, key := range keys {
				wg.Add(1)
				go func(key string) {
					defer wg.Done()
					rec, err := repo.FindByID(ctx, v.ID)
					if err != nil {
						t.Errorf("FindByID: %v", err)
						return
					}
					rec.VideoKey = key
					if err := repo.Update(ctx, rec); err != nil {
						t.Errorf("Update: %v", err)
					}
				}(key)
			}
			wg.Wait()

			saved, _ := repo.FindByID(ctx, v.ID)
			found := false
			for _, key := range keys {
				if saved.VideoKey == key {
					found = true
				}
			}
			if !found {
				t.Errorf("expected one of %v to win, got %q", keys, saved.VideoKey)
			}
		})
	}
}

func TestMemoryRepository_ReturnsClones(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	v := New("user-1", "title", "")
	_ = repo.Create(ctx, v)

	found, _ := repo.FindByID(ctx, v.ID)
	found.VideoKey = "mutated"

	again, _ := repo.FindByID(ctx, v.ID)
	if again.VideoKey != "" {
		t.Errorf("external mutation leaked into repository: %q", again.VideoKey)
	}
}

func TestMemoryRepository_Create_Duplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	v := New("user-1", "title", "")

	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, v); err == nil {
		t.Error("expected error for duplicate ID")
	}
}
