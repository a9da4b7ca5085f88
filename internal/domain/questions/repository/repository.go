package repository

import (
	"context"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

// CounterKey names the counter that numbers questions.
const CounterKey = "lastQuestionNumber"

// Filter restricts List to questions whose fields equal every non-empty value.
type Filter struct {
	Subject    string
	ForClass   string
	Topic      string
	Difficulty string
	Origin     string
}

func (f Filter) match(q *model.Question) bool {
	return (f.Subject == "" || f.Subject == string(q.Subject)) &&
		(f.ForClass == "" || f.ForClass == string(q.ForClass)) &&
		(f.Topic == "" || f.Topic == q.Topic) &&
		(f.Difficulty == "" || f.Difficulty == string(q.Difficulty)) &&
		(f.Origin == "" || f.Origin == string(q.Origin))
}

// Repository persists questions.
//
// Create assigns the question number, createdAt and updatedAt, and an id
// when q.ID is empty. Creating with an id that already exists returns the
// stored question unchanged and consumes no number. Update keeps id,
// questionNumber and createdAt, and refreshes updatedAt. Get, Update and
// Delete return errs.ErrNotFound for an unknown id.
type Repository interface {
	Create(ctx context.Context, q *model.Question) (*model.Question, error)
	Get(ctx context.Context, id string) (*model.Question, error)
	List(ctx context.Context, f Filter) ([]*model.Question, error)
	Update(ctx context.Context, id string, q *model.Question) (*model.Question, error)
	Delete(ctx context.Context, id string) error
	// NextSequenceNumber atomically increments the named counter and
	// returns its new value. The first call yields 1.
	NextSequenceNumber(ctx context.Context, counterKey string) (int64, error)
}
