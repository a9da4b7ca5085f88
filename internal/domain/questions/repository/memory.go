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

// MemoryRepository keeps questions in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	questions map[string]model.Question
	counters  map[string]int64
	now       func() time.Time
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		questions: make(map[string]model.Question),
		counters:  make(map[string]int64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(_ context.Context, q *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.ID != "" {
		if existing, ok := r.questions[q.ID]; ok {
			return &existing, nil
		}
	}

	stored := *q
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.counters[CounterKey]++
	stored.QuestionNumber = r.counters[CounterKey]
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.questions[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &q, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Question, 0, len(r.questions))
	for _, q := range r.questions {
		if f.match(&q) {
			q := q
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, q *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.questions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	stored := *q
	stored.ID = existing.ID
	stored.QuestionNumber = existing.QuestionNumber
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now()

	r.questions[id] = stored
	return &stored, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.questions, id)
	return nil
}

func (r *MemoryRepository) NextSequenceNumber(_ context.Context, counterKey string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[counterKey]++
	return r.counters[counterKey], nil
}
