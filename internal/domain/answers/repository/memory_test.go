package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/model"
)

func newAnswer(questionID, userID string, verdict model.Verdict, testID string) *model.Answer {
	a := &model.Answer{
		QuestionID:   questionID,
		UserID:       userID,
		QuestionType: model.AnswerTypeSingleSelect,
		TimeTaken:    30,
		Answer:       model.SingleSelectAnswer{SelectedOption: 1},
		Verdict:      verdict,
		SubmittedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if testID != "" {
		a.SolvedDuringTest = &model.TestContext{
			TestType: model.TestTypeMock,
			TestID:   testID,
			MarkedAs: model.MarkedAsAccepted,
		}
	}
	return a
}

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, newAnswer("q-1", "u-1", model.VerdictCorrect, ""))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	change := newAnswer("q-1", "u-1", model.VerdictIncorrect, "")
	updated, err := repo.Update(ctx, created.ID, change)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, model.VerdictIncorrect, updated.Verdict)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), errs.ErrNotFound)

	_, err = repo.Update(ctx, created.ID, change)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMemoryRepository_CreateWithExistingID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a := newAnswer("q-1", "u-1", model.VerdictCorrect, "")
	a.ID = "a-1"

	first, err := repo.Create(ctx, a)
	require.NoError(t, err)

	dup := newAnswer("q-2", "u-2", model.VerdictIncorrect, "")
	dup.ID = "a-1"
	again, err := repo.Create(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestMemoryRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, a := range []*model.Answer{
		newAnswer("q-1", "u-1", model.VerdictCorrect, "mock-1"),
		newAnswer("q-1", "u-2", model.VerdictIncorrect, ""),
		newAnswer("q-2", "u-1", model.VerdictCorrect, "mock-1"),
		newAnswer("q-2", "u-2", model.VerdictCorrect, "mock-2"),
	} {
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by question", Filter{QuestionID: "q-1"}, 2},
		{"by user and verdict", Filter{UserID: "u-1", Verdict: "correct"}, 2},
		{"by test", Filter{TestID: "mock-1"}, 2},
		{"by test and user", Filter{TestID: "mock-2", UserID: "u-1"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	ordered, err := repo.List(ctx, Filter{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "q-1", ordered[0].QuestionID)
	assert.Equal(t, "q-2", ordered[1].QuestionID)
}
