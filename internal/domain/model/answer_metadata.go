package model

import (
	"encoding/json"
	"fmt"
)

// AnswerMetadata describes how a question is answered.
// It is one of InputMetadata, SingleSelectMetadata or MultiSelectMetadata.
type AnswerMetadata interface {
	AnswerType() AnswerType
}

// InputMetadata free-form answer.
type InputMetadata struct {
	CorrectAnswer *string  `json:"correct_answer,omitempty"`
	Options       []string `json:"options"`
}

// SingleSelectMetadata exactly one option is correct.
type SingleSelectMetadata struct {
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option,omitempty"`
}

// MultiSelectMetadata one or more options are correct.
type MultiSelectMetadata struct {
	Options        []string `json:"options"`
	CorrectOptions []int    `json:"correct_options,omitempty"`
}

func (InputMetadata) AnswerType() AnswerType        { return AnswerTypeInput }
func (SingleSelectMetadata) AnswerType() AnswerType { return AnswerTypeSingleSelect }
func (MultiSelectMetadata) AnswerType() AnswerType  { return AnswerTypeMultiSelect }

func (m InputMetadata) MarshalJSON() ([]byte, error) {
	type alias InputMetadata
	return json.Marshal(struct {
		AnswerType AnswerType `json:"answer_type"`
		alias
	}{AnswerTypeInput, alias(m)})
}

func (m SingleSelectMetadata) MarshalJSON() ([]byte, error) {
	type alias SingleSelectMetadata
	return json.Marshal(struct {
		AnswerType AnswerType `json:"answer_type"`
		alias
	}{AnswerTypeSingleSelect, alias(m)})
}

func (m MultiSelectMetadata) MarshalJSON() ([]byte, error) {
	type alias MultiSelectMetadata
	return json.Marshal(struct {
		AnswerType AnswerType `json:"answer_type"`
		alias
	}{AnswerTypeMultiSelect, alias(m)})
}

// UnmarshalAnswerMetadata decodes a tagged answer_metadata object into its variant.
func UnmarshalAnswerMetadata(data []byte) (AnswerMetadata, error) {
	var tag struct {
		AnswerType AnswerType `json:"answer_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode answer_type: %w", err)
	}

	switch tag.AnswerType {
	case AnswerTypeInput:
		var m InputMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if m.Options == nil {
			m.Options = []string{}
		}
		return m, nil
	case AnswerTypeSingleSelect:
		var m SingleSelectMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case AnswerTypeMultiSelect:
		var m MultiSelectMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown answer_type %q", tag.AnswerType)
	}
}
