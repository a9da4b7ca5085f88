package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/model"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
)

// verifyVerdict checks a against its question. A question without a stored
// correct answer cannot contradict any verdict.
func (s *AnswerService) verifyVerdict(ctx context.Context, a *model.Answer) error {
	q, err := s.questions.Get(ctx, a.QuestionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return validation.NewError("question_id: Referenced question does not exist")
		}
		return fmt.Errorf("failed to load question %s: %w", a.QuestionID, err)
	}

	if want := q.AnswerMetadata.AnswerType(); a.QuestionType != want {
		return validation.NewError(fmt.Sprintf("question_type: Question %s expects answer type %s", q.ID, want))
	}

	verdict, known := grade(q.AnswerMetadata, a.Answer)
	if known && verdict != a.Verdict {
		return validation.NewError(fmt.Sprintf("verdict: Verdict does not match the stored correct answer, expected %s", verdict))
	}
	return nil
}

// grade computes the verdict for p. known is false when meta has no correct answer.
func grade(meta model.AnswerMetadata, p model.AnswerPayload) (verdict model.Verdict, known bool) {
	var correct bool

	switch m := meta.(type) {
	case model.InputMetadata:
		ans, ok := p.(model.InputAnswer)
		if m.CorrectAnswer == nil || !ok {
			return "", false
		}
		correct = strings.EqualFold(strings.TrimSpace(ans.Input), strings.TrimSpace(*m.CorrectAnswer))
	case model.SingleSelectMetadata:
		ans, ok := p.(model.SingleSelectAnswer)
		if m.CorrectOption == nil || !ok {
			return "", false
		}
		correct = ans.SelectedOption == *m.CorrectOption
	case model.MultiSelectMetadata:
		ans, ok := p.(model.MultiSelectAnswer)
		if len(m.CorrectOptions) == 0 || !ok {
			return "", false
		}
		correct = sameSet(ans.SelectedOptions, m.CorrectOptions)
	default:
		return "", false
	}

	if correct {
		return model.VerdictCorrect, true
	}
	return model.VerdictIncorrect, true
}

func sameSet(a, b []int) bool {
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}
