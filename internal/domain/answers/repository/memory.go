package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/model"
)

type memoryEntry struct {
	answer model.Answer
	seq    int64
}

// MemoryRepository keeps answers in process memory, listed in insertion order.
type MemoryRepository struct {
	mu      sync.RWMutex
	answers map[string]memoryEntry
	seq     int64
	now     func() time.Time
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		answers: make(map[string]memoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(_ context.Context, a *model.Answer) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID != "" {
		if existing, ok := r.answers[a.ID]; ok {
			out := existing.answer
			return &out, nil
		}
	}

	stored := *a
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.seq++
	r.answers[stored.ID] = memoryEntry{answer: stored, seq: r.seq}
	return &stored, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*model.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.answers[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &e.answer, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*model.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(r.answers))
	for _, e := range r.answers {
		if f.match(&e.answer) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*model.Answer, 0, len(entries))
	for i := range entries {
		out = append(out, &entries[i].answer)
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, a *model.Answer) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.answers[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	stored := *a
	stored.ID = id
	stored.CreatedAt = existing.answer.CreatedAt
	stored.UpdatedAt = r.now()

	r.answers[id] = memoryEntry{answer: stored, seq: existing.seq}
	return &stored, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.answers[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.answers, id)
	return nil
}
