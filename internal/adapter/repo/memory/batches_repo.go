package memory

import (
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

// BatchRepo keeps scoring batches for the process lifetime. A batch becomes
// visible only once Put has copied it completely.
type BatchRepo struct {
	mu      sync.RWMutex
	batches map[string]domain.Batch
}

var _ domain.BatchRepository = (*BatchRepo)(nil)

// NewBatchRepo constructs an empty BatchRepo.
func NewBatchRepo() *BatchRepo { return &BatchRepo{batches: map[string]domain.Batch{}} }

// Put stores a batch. Reusing an id fails with ErrConflict.
func (r *BatchRepo) Put(ctx domain.Context, b domain.Batch) error {
	_, span := otel.Tracer("repo.batches").Start(ctx, "batches.Put")
	defer span.End()
	if b.ID == "" {
		return fmt.Errorf("op=batch.put: empty id: %w", domain.ErrInvalidArgument)
	}
	cp := copyBatch(b)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.ID]; ok {
		return fmt.Errorf("op=batch.put: %w", domain.ErrConflict)
	}
	r.batches[b.ID] = cp
	return nil
}

// Get loads a batch by id.
func (r *BatchRepo) Get(ctx domain.Context, id string) (domain.Batch, error) {
	_, span := otel.Tracer("repo.batches").Start(ctx, "batches.Get")
	defer span.End()
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	if !ok {
		return domain.Batch{}, fmt.Errorf("op=batch.get: %w", domain.ErrNotFound)
	}
	return copyBatch(b), nil
}

// List returns all batches, newest first.
func (r *BatchRepo) List(ctx domain.Context) ([]domain.Batch, error) {
	_, span := otel.Tracer("repo.batches").Start(ctx, "batches.List")
	defer span.End()
	r.mu.RLock()
	out := make([]domain.Batch, 0, len(r.batches))
	for _, b := range r.batches {
		out = append(out, copyBatch(b))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID > out[k].ID
	})
	return out, nil
}
