package repository

import (
	"context"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

// Filter restricts List to answers whose fields equal every non-empty value.
// TestID matches solved_during_test.test_id.
type Filter struct {
	QuestionID string
	UserID     string
	Verdict    string
	TestID     string
}

func (f Filter) match(a *model.Answer) bool {
	if f.TestID != "" && (a.SolvedDuringTest == nil || a.SolvedDuringTest.TestID != f.TestID) {
		return false
	}
	return (f.QuestionID == "" || f.QuestionID == a.QuestionID) &&
		(f.UserID == "" || f.UserID == a.UserID) &&
		(f.Verdict == "" || f.Verdict == string(a.Verdict))
}

// Repository persists answers. Create assigns an id when a.ID is empty and
// is a no-op returning the stored answer when the id already exists.
// Get, Update and Delete return errs.ErrNotFound for an unknown id.
type Repository interface {
	Create(ctx context.Context, a *model.Answer) (*model.Answer, error)
	Get(ctx context.Context, id string) (*model.Answer, error)
	List(ctx context.Context, f Filter) ([]*model.Answer, error)
	Update(ctx context.Context, id string, a *model.Answer) (*model.Answer, error)
	Delete(ctx context.Context, id string) error
}
