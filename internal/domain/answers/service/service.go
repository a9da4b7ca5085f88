package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/IT-Nick/question-bank/internal/domain/answers/repository"
	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/events"
	"github.com/IT-Nick/question-bank/internal/domain/model"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

// Publisher enqueues write requests.
type Publisher interface {
	Publish(ctx context.Context, m queue.Message) (string, error)
}

// QuestionReader loads the question an answer refers to.
type QuestionReader interface {
	Get(ctx context.Context, id string) (*model.Question, error)
}

// AnswerService validates answer submissions and writes them directly or through the queue.
type AnswerService struct {
	repo      repository.Repository
	questions QuestionReader
	publisher Publisher
}

// NewAnswerService creates a new AnswerService. With a nil questions reader
// the verdict is stored as supplied; otherwise it is checked against the
// referenced question. A nil publisher disables the Enqueue methods.
func NewAnswerService(repo repository.Repository, questions QuestionReader, publisher Publisher) *AnswerService {
	return &AnswerService{repo: repo, questions: questions, publisher: publisher}
}

// Create validates data and stores it as a new answer.
func (s *AnswerService) Create(ctx context.Context, data []byte) (*model.Answer, error) {
	a, err := s.parse(ctx, data)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	return created, nil
}

// Get returns an answer by id.
func (s *AnswerService) Get(ctx context.Context, id string) (*model.Answer, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

// List returns the answers matching f.
func (s *AnswerService) List(ctx context.Context, f repository.Filter) ([]*model.Answer, error) {
	answers, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// Update validates data and replaces answer id.
func (s *AnswerService) Update(ctx context.Context, id string, data []byte) (*model.Answer, error) {
	a, err := s.parse(ctx, data)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, a)
	if err != nil {
		return nil, fmt.Errorf("failed to update answer: %w", err)
	}
	return updated, nil
}

// Delete removes an answer by id.
func (s *AnswerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return nil
}

// EnqueueCreate validates data, assigns the answer its id and queues the write.
func (s *AnswerService) EnqueueCreate(ctx context.Context, data []byte) (string, error) {
	return s.enqueue(ctx, events.AnswerCreate, uuid.NewString(), data)
}

// EnqueueUpdate validates data and queues an update of answer id.
func (s *AnswerService) EnqueueUpdate(ctx context.Context, id string, data []byte) (string, error) {
	return s.enqueue(ctx, events.AnswerUpdate, id, data)
}

func (s *AnswerService) enqueue(ctx context.Context, t events.Type, id string, data []byte) (string, error) {
	if s.publisher == nil {
		return "", errs.ErrAsyncDisabled
	}
	if _, err := s.parse(ctx, data); err != nil {
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

// Apply performs a queued write.
func (s *AnswerService) Apply(ctx context.Context, e events.Event) error {
	id, err := events.RecordID(e.Payload)
	if err != nil {
		return err
	}
	a, err := s.parse(ctx, e.Payload)
	if err != nil {
		return err
	}

	switch e.Type {
	case events.AnswerCreate:
		a.ID = id
		_, err = s.repo.Create(ctx, a)
	case events.AnswerUpdate:
		_, err = s.repo.Update(ctx, id, a)
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownEvent, e.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s for %s: %w", e.Type, id, err)
	}
	return nil
}

func (s *AnswerService) parse(ctx context.Context, data []byte) (*model.Answer, error) {
	a, res := validation.ParseAnswer(data)
	if !res.IsValid {
		return nil, res.Err()
	}
	if s.questions != nil {
		if err := s.verifyVerdict(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}
