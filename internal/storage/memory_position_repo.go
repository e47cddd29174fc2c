package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

// MemoryPositionRepo is the in-process PositionRepo.
type MemoryPositionRepo struct {
	mu     sync.RWMutex
	byID   map[string]EntityPosition
	byRoom map[vec.Vec3]map[string]struct{}
}

func NewMemoryPositionRepo() *MemoryPositionRepo {
	return &MemoryPositionRepo{
		byID:   make(map[string]EntityPosition),
		byRoom: make(map[vec.Vec3]map[string]struct{}),
	}
}

func (r *MemoryPositionRepo) Save(ctx context.Context, p EntityPosition) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if p.EntityID == "" {
		return fmt.Errorf("invalid entity id %q", p.EntityID)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID[p.EntityID]; ok {
		r.unindex(old)
	}
	r.byID[p.EntityID] = p
	ids, ok := r.byRoom[p.Location]
	if !ok {
		ids = make(map[string]struct{})
		r.byRoom[p.Location] = ids
	}
	ids[p.EntityID] = struct{}{}
	return nil
}

func (r *MemoryPositionRepo) unindex(p EntityPosition) {
	ids := r.byRoom[p.Location]
	delete(ids, p.EntityID)
	if len(ids) == 0 {
		delete(r.byRoom, p.Location)
	}
}

func (r *MemoryPositionRepo) Load(ctx context.Context, entityID string) (EntityPosition, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return EntityPosition{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[entityID]
	return p, ok, nil
}

func (r *MemoryPositionRepo) Delete(ctx context.Context, entityID string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[entityID]
	if !ok {
		return fmt.Errorf("entity %s: %w", entityID, ErrPositionNotFound)
	}
	r.unindex(p)
	delete(r.byID, entityID)
	return nil
}

func (r *MemoryPositionRepo) FindAt(ctx context.Context, loc vec.Vec3) ([]EntityPosition, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EntityPosition, 0, len(r.byRoom[loc]))
	for id := range r.byRoom[loc] {
		out = append(out, r.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// Count returns the number of stored positions.
func (r *MemoryPositionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryPositionRepo) Close() error { return nil }
