package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

func TestAnswerDocument_PayloadVariants(t *testing.T) {
	tests := []struct {
		questionType model.AnswerType
		payload      model.AnswerPayload
	}{
		{model.AnswerTypeInput, model.InputAnswer{Input: "9.8"}},
		{model.AnswerTypeSingleSelect, model.SingleSelectAnswer{SelectedOption: 0}},
		{model.AnswerTypeMultiSelect, model.MultiSelectAnswer{SelectedOptions: []int{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.questionType), func(t *testing.T) {
			a := newAnswer("q-1", "u-1", model.VerdictCorrect, "mock-1")
			a.ID = "a-1"
			a.QuestionType = tt.questionType
			a.Answer = tt.payload

			raw, err := bson.Marshal(toAnswerDocument(a))
			require.NoError(t, err)

			var doc answerDocument
			require.NoError(t, bson.Unmarshal(raw, &doc))

			back := fromAnswerDocument(&doc)
			assert.Equal(t, tt.payload, back.Answer)
			assert.Equal(t, a.SolvedDuringTest, back.SolvedDuringTest)
			assert.Equal(t, a.SubmittedAt, back.SubmittedAt)
		})
	}
}
