// Package events describes queued write requests and routes them to the
// service that applies them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
)

// Type names a queued write.
type Type string

const (
	QuestionCreate Type = "question_create"
	QuestionUpdate Type = "question_update"
	AnswerCreate   Type = "answer_create"
	AnswerUpdate   Type = "answer_update"
)

// Event is a write request taken off the queue. Payload is the record JSON
// carrying its target "_id".
type Event struct {
	Type    Type
	Payload json.RawMessage
}

// Applier applies events of one resource.
type Applier interface {
	Apply(ctx context.Context, e Event) error
}

// RecordID returns the "_id" carried by an event payload.
func RecordID(payload json.RawMessage) (string, error) {
	var head struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return "", validation.NewError("Invalid payload: " + err.Error())
	}
	if head.ID == "" {
		return "", validation.NewError("_id: Required")
	}
	return head.ID, nil
}

// WithRecordID returns payload with "_id" set to id. payload must be a JSON object.
func WithRecordID(payload json.RawMessage, id string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	rawID, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields["_id"] = rawID
	return json.Marshal(fields)
}

// Dispatcher routes events by the resource prefix of their type.
type Dispatcher struct {
	questions Applier
	answers   Applier
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(questions, answers Applier) *Dispatcher {
	return &Dispatcher{questions: questions, answers: answers}
}

// Dispatch applies e with the matching service.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	switch {
	case strings.HasPrefix(string(e.Type), "question_"):
		return d.questions.Apply(ctx, e)
	case strings.HasPrefix(string(e.Type), "answer_"):
		return d.answers.Apply(ctx, e)
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownEvent, e.Type)
	}
}

// IsPermanent reports whether redelivering the event cannot succeed.
func IsPermanent(err error) bool {
	var verr *validation.Error
	return errors.Is(err, errs.ErrUnknownEvent) || errors.Is(err, errs.ErrNotFound) || errors.As(err, &verr)
}
