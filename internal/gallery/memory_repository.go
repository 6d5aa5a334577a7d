package gallery

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Image
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Image)}
}

func (r *memoryRepository) Create(_ context.Context, img Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[img.ID]; exists {
		return errors.New("image exists")
	}
	r.storage[img.ID] = img
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.storage[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

func (r *memoryRepository) ListByStatus(_ context.Context, status Status) ([]Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Filter(lo.Values(r.storage), func(img Image, _ int) bool { return img.Status == status })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *memoryRepository) Transition(_ context.Context, id string, from, to Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.storage[id]
	if !ok || img.Status != from {
		return ErrNotFound
	}
	img.Status = to
	img.ApprovedAt = nil
	if to == StatusApproved {
		t := at.UTC()
		img.ApprovedAt = &t
	}
	r.storage[id] = img
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.storage[id]
	if !ok || img.Status != status {
		return ErrNotFound
	}
	delete(r.storage, id)
	return nil
}
