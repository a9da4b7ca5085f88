package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/events"
	"github.com/IT-Nick/question-bank/internal/domain/model"
	"github.com/IT-Nick/question-bank/internal/domain/questions/repository"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

// Publisher enqueues write requests.
type Publisher interface {
	Publish(ctx context.Context, m queue.Message) (string, error)
}

// QuestionService validates question records and writes them directly or through the queue.
type QuestionService struct {
	repo      repository.Repository
	publisher Publisher
	opts      []validation.Option
}

// NewQuestionService creates a new QuestionService. A nil publisher disables
// the Enqueue methods.
func NewQuestionService(repo repository.Repository, publisher Publisher, opts ...validation.Option) *QuestionService {
	return &QuestionService{repo: repo, publisher: publisher, opts: opts}
}

// Create validates data and stores it as a new question.
func (s *QuestionService) Create(ctx context.Context, data []byte) (*model.Question, error) {
	q, err := s.parse(data)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return created, nil
}

// Get returns a question by id.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// List returns the questions matching f.
func (s *QuestionService) List(ctx context.Context, f repository.Filter) ([]*model.Question, error) {
	questions, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// Update validates data and replaces the caller-owned fields of question id.
func (s *QuestionService) Update(ctx context.Context, id string, data []byte) (*model.Question, error) {
	q, err := s.parse(data)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, q)
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return updated, nil
}

// Delete removes a question by id.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// EnqueueCreate validates data, assigns the new question its id and queues
// the write. It returns the queue message id.
func (s *QuestionService) EnqueueCreate(ctx context.Context, data []byte) (string, error) {
	return s.enqueue(ctx, events.QuestionCreate, uuid.NewString(), data)
}

// EnqueueUpdate validates data and queues an update of question id.
func (s *QuestionService) EnqueueUpdate(ctx context.Context, id string, data []byte) (string, error) {
	return s.enqueue(ctx, events.QuestionUpdate, id, data)
}

func (s *QuestionService) enqueue(ctx context.Context, t events.Type, id string, data []byte) (string, error) {
	if s.publisher == nil {
		return "", errs.ErrAsyncDisabled
	}
	if _, err := s.parse(data); err != nil {
		return "", err
	}

	payload, err := events.WithRecordID(data, id)
	if err != nil {
		return "", err
	}
	messageID, err := s.publisher.Publish(ctx, queue.Message{EventType: string(t), Payload: payload, OrderingKey: id})
	if err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", t, err)
	}
	return messageID, nil
}

// Apply performs a queued write. The payload is validated again since it
// may come from any publisher.
func (s *QuestionService) Apply(ctx context.Context, e events.Event) error {
	id, err := events.RecordID(e.Payload)
	if err != nil {
		return err
	}
	q, err := s.parse(e.Payload)
	if err != nil {
		return err
	}

	switch e.Type {
	case events.QuestionCreate:
		q.ID = id
		_, err = s.repo.Create(ctx, q)
	case events.QuestionUpdate:
		_, err = s.repo.Update(ctx, id, q)
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownEvent, e.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s for %s: %w", e.Type, id, err)
	}
	return nil
}

func (s *QuestionService) parse(data []byte) (*model.Question, error) {
	q, res := validation.ParseQuestion(data, s.opts...)
	if !res.IsValid {
		return nil, res.Err()
	}
	return q, nil
}
