package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"dog-registry/internal/domain/dogs"
)

type dogRepo struct {
	mu   sync.RWMutex
	byID map[string]dogs.Dog
}

func NewDogRepo() dogs.Repository {
	return &dogRepo{
		byID: make(map[string]dogs.Dog),
	}
}

func (r *dogRepo) Create(ctx context.Context, d dogs.Dog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dog id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("dog already exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *dogRepo) Update(ctx context.Context, d dogs.Dog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dog id required")
	}
	if _, exists := r.byID[d.ID]; !exists {
		return dogs.ErrNotFound
	}
	r.byID[d.ID] = d
	return nil
}

func (r *dogRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return dogs.Dog{}, dogs.ErrNotFound
	}
	return d, nil
}

func (r *dogRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]dogs.Dog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dogs.Dog, 0)
	for _, d := range r.byID {
		if d.OwnerUserID == ownerUserID {
			out = append(out, d)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
