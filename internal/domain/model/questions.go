package model

import (
	"encoding/json"
	"time"
)

// Question is a bank item.
type Question struct {
	ID                  string            `json:"_id,omitempty"`
	QuestionNumber      int64             `json:"questionNumber,omitempty"`
	Subject             Subject           `json:"subject"`
	ForClass            ClassLevel        `json:"for_class"`
	Topic               string            `json:"topic"`
	Difficulty          Difficulty        `json:"difficulty"`
	Origin              Origin            `json:"origin"`
	TestInfo            []TestInfo        `json:"test_info"`
	QuestionText        string            `json:"question_text"`
	QuestionAttachments []string          `json:"question_attachments"`
	AnswerMetadata      AnswerMetadata    `json:"answer_metadata"`
	Tags                []string          `json:"tags"`
	CreatedBy           string            `json:"created_by"`
	AnswerAttachments   map[string]string `json:"answer_attachments"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// TestInfo references the test a question was sourced from.
type TestInfo struct {
	TestType TestType `json:"test_type,omitempty"`
	TestID   string   `json:"test_id"`
}

// UnmarshalJSON decodes answer_metadata into its variant.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := struct {
		*alias
		AnswerMetadata json.RawMessage `json:"answer_metadata"`
	}{alias: (*alias)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	q.AnswerMetadata = nil
	if len(aux.AnswerMetadata) > 0 && string(aux.AnswerMetadata) != "null" {
		meta, err := UnmarshalAnswerMetadata(aux.AnswerMetadata)
		if err != nil {
			return err
		}
		q.AnswerMetadata = meta
	}

	return nil
}

// WithDefaults fills the optional collections with their empty values.
func (q *Question) WithDefaults() *Question {
	if q.QuestionAttachments == nil {
		q.QuestionAttachments = []string{}
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if q.AnswerAttachments == nil {
		q.AnswerAttachments = map[string]string{}
	}
	return q
}
