package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/model"
)

const (
	questionsCollection = "questions"
	systemCollection    = "system"
	countersDocument    = "counters"
)

type testInfoDocument struct {
	TestType string `bson:"test_type,omitempty"`
	TestID   string `bson:"test_id"`
}

type answerMetadataDocument struct {
	AnswerType     string   `bson:"answer_type"`
	CorrectAnswer  *string  `bson:"correct_answer,omitempty"`
	Options        []string `bson:"options"`
	CorrectOption  *int     `bson:"correct_option,omitempty"`
	CorrectOptions []int    `bson:"correct_options,omitempty"`
}

type questionDocument struct {
	ID                  string                 `bson:"_id"`
	QuestionNumber      int64                  `bson:"questionNumber"`
	Subject             string                 `bson:"subject"`
	ForClass            string                 `bson:"for_class"`
	Topic               string                 `bson:"topic"`
	Difficulty          string                 `bson:"difficulty"`
	Origin              string                 `bson:"origin"`
	TestInfo            []testInfoDocument     `bson:"test_info"`
	QuestionText        string                 `bson:"question_text"`
	QuestionAttachments []string               `bson:"question_attachments"`
	AnswerMetadata      answerMetadataDocument `bson:"answer_metadata"`
	Tags                []string               `bson:"tags"`
	CreatedBy           string                 `bson:"created_by"`
	AnswerAttachments   map[string]string      `bson:"answer_attachments"`
	CreatedAt           time.Time              `bson:"createdAt"`
	UpdatedAt           time.Time              `bson:"updatedAt"`
}

// MongoRepository stores questions in MongoDB. The counter lives in the
// system/counters document.
type MongoRepository struct {
	client    *mongo.Client
	questions *mongo.Collection
	system    *mongo.Collection
}

// NewMongoRepository creates a new MongoRepository. Transactions require a
// replica set or sharded cluster.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		client:    db.Client(),
		questions: db.Collection(questionsCollection),
		system:    db.Collection(systemCollection),
	}
}

// Create numbers and inserts the question inside one session transaction.
func (r *MongoRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if q.ID != "" {
		existing, err := r.Get(ctx, q.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}

	stored := *q
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	stored.UpdatedAt = stored.CreatedAt

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := r.nextSequenceNumber(sc, CounterKey)
		if err != nil {
			return nil, err
		}
		stored.QuestionNumber = n
		if _, err := r.questions.InsertOne(sc, toQuestionDocument(&stored)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.Get(ctx, stored.ID)
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return stored.WithDefaults(), nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*model.Question, error) {
	var doc questionDocument
	if err := r.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return fromQuestionDocument(&doc)
}

func (r *MongoRepository) List(ctx context.Context, f Filter) ([]*model.Question, error) {
	filter := bson.M{}
	for field, value := range map[string]string{
		"subject":    f.Subject,
		"for_class":  f.ForClass,
		"topic":      f.Topic,
		"difficulty": f.Difficulty,
		"origin":     f.Origin,
	} {
		if value != "" {
			filter[field] = value
		}
	}

	cur, err := r.questions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "questionNumber", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer cur.Close(ctx)

	out := []*model.Question{}
	for cur.Next(ctx) {
		var doc questionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode question: %w", err)
		}
		q, err := fromQuestionDocument(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, q *model.Question) (*model.Question, error) {
	doc := toQuestionDocument(q)
	set := bson.M{
		"subject":              doc.Subject,
		"for_class":            doc.ForClass,
		"topic":                doc.Topic,
		"difficulty":           doc.Difficulty,
		"origin":               doc.Origin,
		"test_info":            doc.TestInfo,
		"question_text":        doc.QuestionText,
		"question_attachments": doc.QuestionAttachments,
		"answer_metadata":      doc.AnswerMetadata,
		"tags":                 doc.Tags,
		"created_by":           doc.CreatedBy,
		"answer_attachments":   doc.AnswerAttachments,
		"updatedAt":            time.Now().UTC().Truncate(time.Millisecond),
	}

	var updated questionDocument
	err := r.questions.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return fromQuestionDocument(&updated)
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.questions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) NextSequenceNumber(ctx context.Context, counterKey string) (int64, error) {
	return r.nextSequenceNumber(ctx, counterKey)
}

func (r *MongoRepository) nextSequenceNumber(ctx context.Context, counterKey string) (int64, error) {
	var counters bson.M
	err := r.system.FindOneAndUpdate(ctx,
		bson.M{"_id": countersDocument},
		bson.M{"$inc": bson.M{counterKey: int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counters)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", counterKey, err)
	}

	switch v := counters[counterKey].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("counter %s has unexpected type %T", counterKey, v)
	}
}

func toQuestionDocument(q *model.Question) *questionDocument {
	q.WithDefaults()
	doc := &questionDocument{
		ID:                  q.ID,
		QuestionNumber:      q.QuestionNumber,
		Subject:             string(q.Subject),
		ForClass:            string(q.ForClass),
		Topic:               q.Topic,
		Difficulty:          string(q.Difficulty),
		Origin:              string(q.Origin),
		QuestionText:        q.QuestionText,
		QuestionAttachments: q.QuestionAttachments,
		Tags:                q.Tags,
		CreatedBy:           q.CreatedBy,
		AnswerAttachments:   q.AnswerAttachments,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
	if q.TestInfo != nil {
		doc.TestInfo = make([]testInfoDocument, 0, len(q.TestInfo))
		for _, ti := range q.TestInfo {
			doc.TestInfo = append(doc.TestInfo, testInfoDocument{TestType: string(ti.TestType), TestID: ti.TestID})
		}
	}

	switch m := q.AnswerMetadata.(type) {
	case model.InputMetadata:
		doc.AnswerMetadata = answerMetadataDocument{AnswerType: string(m.AnswerType()), CorrectAnswer: m.CorrectAnswer, Options: m.Options}
	case model.SingleSelectMetadata:
		doc.AnswerMetadata = answerMetadataDocument{AnswerType: string(m.AnswerType()), Options: m.Options, CorrectOption: m.CorrectOption}
	case model.MultiSelectMetadata:
		doc.AnswerMetadata = answerMetadataDocument{AnswerType: string(m.AnswerType()), Options: m.Options, CorrectOptions: m.CorrectOptions}
	}
	return doc
}

func fromQuestionDocument(doc *questionDocument) (*model.Question, error) {
	q := &model.Question{
		ID:                  doc.ID,
		QuestionNumber:      doc.QuestionNumber,
		Subject:             model.Subject(doc.Subject),
		ForClass:            model.ClassLevel(doc.ForClass),
		Topic:               doc.Topic,
		Difficulty:          model.Difficulty(doc.Difficulty),
		Origin:              model.Origin(doc.Origin),
		QuestionText:        doc.QuestionText,
		QuestionAttachments: doc.QuestionAttachments,
		Tags:                doc.Tags,
		CreatedBy:           doc.CreatedBy,
		AnswerAttachments:   doc.AnswerAttachments,
		CreatedAt:           doc.CreatedAt.UTC(),
		UpdatedAt:           doc.UpdatedAt.UTC(),
	}
	if doc.TestInfo != nil {
		q.TestInfo = make([]model.TestInfo, 0, len(doc.TestInfo))
		for _, ti := range doc.TestInfo {
			q.TestInfo = append(q.TestInfo, model.TestInfo{TestType: model.TestType(ti.TestType), TestID: ti.TestID})
		}
	}

	m := doc.AnswerMetadata
	switch model.AnswerType(m.AnswerType) {
	case model.AnswerTypeInput:
		opts := m.Options
		if opts == nil {
			opts = []string{}
		}
		q.AnswerMetadata = model.InputMetadata{CorrectAnswer: m.CorrectAnswer, Options: opts}
	case model.AnswerTypeSingleSelect:
		q.AnswerMetadata = model.SingleSelectMetadata{Options: m.Options, CorrectOption: m.CorrectOption}
	case model.AnswerTypeMultiSelect:
		q.AnswerMetadata = model.MultiSelectMetadata{Options: m.Options, CorrectOptions: m.CorrectOptions}
	default:
		return nil, fmt.Errorf("question %s has unknown answer_type %q", doc.ID, m.AnswerType)
	}

	return q.WithDefaults(), nil
}
