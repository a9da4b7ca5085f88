package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/events"
	"github.com/IT-Nick/question-bank/internal/domain/questions/repository"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

const questionJSON = `{
	"subject": "Physics",
	"for_class": "11",
	"topic": "Mechanics",
	"difficulty": "Medium",
	"origin": "platform",
	"test_info": null,
	"question_text": "A ball is thrown upwards at 10 m/s. How high does it go?",
	"answer_metadata": {"answer_type": "input", "correct_answer": "5.1"},
	"created_by": "a@b.com"
}`

type recordingPublisher struct {
	messages []queue.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, m queue.Message) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, m)
	return "msg-1", nil
}

func TestQuestionService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestionService(repository.NewMemoryRepository(), nil)

	created, err := svc.Create(ctx, []byte(questionJSON))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.QuestionNumber)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	changed := []byte(`{
		"subject": "Physics", "for_class": "12", "topic": "Kinematics", "difficulty": "Hard",
		"origin": "platform", "question_text": "Updated", "answer_metadata": {"answer_type": "input"},
		"created_by": "a@b.com"
	}`)
	updated, err := svc.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Kinematics", updated.Topic)
	assert.Equal(t, created.QuestionNumber, updated.QuestionNumber)

	list, err := svc.List(ctx, repository.Filter{Topic: "Kinematics"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestQuestionService_CreateInvalid(t *testing.T) {
	svc := NewQuestionService(repository.NewMemoryRepository(), nil)

	_, err := svc.Create(context.Background(), []byte(`{"subject":"Physics"}`))

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "topic: Required")
}

func TestQuestionService_PlatformPolicy(t *testing.T) {
	withInfo := []byte(`{
		"subject": "Physics", "for_class": "11", "topic": "Optics", "difficulty": "Easy",
		"origin": "platform", "test_info": [{"test_id": "t-1"}], "question_text": "?",
		"answer_metadata": {"answer_type": "input"}, "created_by": "a@b.com"
	}`)

	strict := NewQuestionService(repository.NewMemoryRepository(), nil)
	_, err := strict.Create(context.Background(), withInfo)
	assert.Error(t, err)

	lenient := NewQuestionService(repository.NewMemoryRepository(), nil,
		validation.WithPlatformTestInfo(validation.PlatformTestInfoLenient))
	_, err = lenient.Create(context.Background(), withInfo)
	assert.NoError(t, err)
}

func TestQuestionService_Enqueue(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewQuestionService(repository.NewMemoryRepository(), pub)

	messageID, err := svc.EnqueueCreate(ctx, []byte(questionJSON))
	require.NoError(t, err)
	assert.Equal(t, "msg-1", messageID)

	require.Len(t, pub.messages, 1)
	m := pub.messages[0]
	assert.Equal(t, string(events.QuestionCreate), m.EventType)

	id, err := events.RecordID(m.Payload)
	require.NoError(t, err)
	assert.Equal(t, id, m.OrderingKey)

	_, err = svc.EnqueueUpdate(ctx, id, []byte(`{"subject":"Biology"}`))
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
	assert.Len(t, pub.messages, 1)

	pub.err = errors.New("broker down")
	_, err = svc.EnqueueCreate(ctx, []byte(questionJSON))
	assert.ErrorContains(t, err, "broker down")
}

func TestQuestionService_EnqueueDisabled(t *testing.T) {
	svc := NewQuestionService(repository.NewMemoryRepository(), nil)

	_, err := svc.EnqueueCreate(context.Background(), []byte(questionJSON))
	assert.ErrorIs(t, err, errs.ErrAsyncDisabled)
}

func TestQuestionService_ApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	repo := repository.NewMemoryRepository()
	svc := NewQuestionService(repo, pub)

	_, err := svc.EnqueueCreate(ctx, []byte(questionJSON))
	require.NoError(t, err)
	e := events.Event{Type: events.QuestionCreate, Payload: pub.messages[0].Payload}

	require.NoError(t, svc.Apply(ctx, e))
	require.NoError(t, svc.Apply(ctx, e))

	all, err := repo.List(ctx, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, pub.messages[0].OrderingKey, all[0].ID)
	assert.Equal(t, int64(1), all[0].QuestionNumber)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(e.Payload, &fields))
	fields["topic"] = json.RawMessage(`"Projectiles"`)
	payload, err := json.Marshal(fields)
	require.NoError(t, err)

	require.NoError(t, svc.Apply(ctx, events.Event{Type: events.QuestionUpdate, Payload: payload}))
	got, err := repo.Get(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Projectiles", got.Topic)
}

func TestQuestionService_ApplyRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestionService(repository.NewMemoryRepository(), nil)

	payload, err := events.WithRecordID([]byte(questionJSON), "q-1")
	require.NoError(t, err)

	err = svc.Apply(ctx, events.Event{Type: "question_delete", Payload: payload})
	assert.ErrorIs(t, err, errs.ErrUnknownEvent)

	err = svc.Apply(ctx, events.Event{Type: events.QuestionUpdate, Payload: payload})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	err = svc.Apply(ctx, events.Event{Type: events.QuestionCreate, Payload: []byte(questionJSON)})
	assert.True(t, events.IsPermanent(err))
}
