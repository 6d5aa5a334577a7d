package landmark

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// MemoryRepository keeps landmarks in process.
type MemoryRepository struct {
	mu        sync.RWMutex
	landmarks []Landmark
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) List(_ context.Context) ([]Landmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Landmark, len(r.landmarks))
	copy(out, r.landmarks)
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, name string) (Landmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := lo.Find(r.landmarks, func(l Landmark) bool { return l.Name == name })
	if !ok {
		return Landmark{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepository) Seed(_ context.Context, landmarks []Landmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range landmarks {
		exists := lo.ContainsBy(r.landmarks, func(cur Landmark) bool { return cur.Name == l.Name })
		if !exists {
			r.landmarks = append(r.landmarks, l)
		}
	}
	return nil
}
