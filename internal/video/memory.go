package video

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; use SQLiteRepository to persist records.
type MemoryRepository struct {
	mu     sync.RWMutex
	videos map[string]*Video
}

// NewMemoryRepository creates a new in-memory video repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		videos: make(map[string]*Video),
	}
}

// Create stores a clone of v.
func (r *MemoryRepository) Create(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; ok {
		return fmt.Errorf("video %s already exists", v.ID)
	}
	r.videos[v.ID] = v.Clone()
	return nil
}

// FindByID retrieves a video by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return v.Clone(), nil
}

// ListByOwner returns clones of the owner's videos, newest first.
func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Video, 0)
	for _, v := range r.videos {
		if v.OwnerID == ownerID {
			result = append(result, v.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Update replaces the stored video with a clone of v.
func (r *MemoryRepository) Update(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; !ok {
		return ErrVideoNotFound
	}
	c := v.Clone()
	c.UpdatedAt = time.Now().UTC()
	r.videos[v.ID] = c
	return nil
}
