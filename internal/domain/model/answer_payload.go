package model

import (
	"encoding/json"
	"fmt"
)

// AnswerPayload is the submitted answer. The variant is forced by the
// question_type of the enclosing Answer.
type AnswerPayload interface {
	QuestionType() AnswerType
}

// InputAnswer answer to an input question.
type InputAnswer struct {
	Input string `json:"input"`
}

// SingleSelectAnswer answer to a single-select question.
type SingleSelectAnswer struct {
	SelectedOption int `json:"selected_option"`
}

// MultiSelectAnswer answer to a multi-select question.
type MultiSelectAnswer struct {
	SelectedOptions []int `json:"selected_options"`
}

func (InputAnswer) QuestionType() AnswerType        { return AnswerTypeInput }
func (SingleSelectAnswer) QuestionType() AnswerType { return AnswerTypeSingleSelect }
func (MultiSelectAnswer) QuestionType() AnswerType  { return AnswerTypeMultiSelect }

// UnmarshalAnswerPayload decodes the answer object for the given question type.
func UnmarshalAnswerPayload(questionType AnswerType, data []byte) (AnswerPayload, error) {
	switch questionType {
	case AnswerTypeInput:
		var p InputAnswer
		err := json.Unmarshal(data, &p)
		return p, err
	case AnswerTypeSingleSelect:
		var p SingleSelectAnswer
		err := json.Unmarshal(data, &p)
		return p, err
	case AnswerTypeMultiSelect:
		var p MultiSelectAnswer
		err := json.Unmarshal(data, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown question_type %q", questionType)
	}
}
