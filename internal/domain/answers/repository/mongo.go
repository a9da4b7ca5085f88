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

const answersCollection = "answers"

type testContextDocument struct {
	TestType                 string `bson:"test_type"`
	TestID                   string `bson:"test_id"`
	DurationPassedWhenSolved int    `bson:"duration_passed_when_solved"`
	MarkedAs                 string `bson:"marked_as"`
}

// answerPayloadDocument holds exactly one of its fields, chosen by question_type.
type answerPayloadDocument struct {
	Input           *string `bson:"input,omitempty"`
	SelectedOption  *int    `bson:"selected_option,omitempty"`
	SelectedOptions []int   `bson:"selected_options,omitempty"`
}

type answerDocument struct {
	ID               string                `bson:"_id"`
	QuestionID       string                `bson:"question_id"`
	UserID           string                `bson:"user_id"`
	QuestionType     string                `bson:"question_type"`
	SolvedDuringTest *testContextDocument  `bson:"solved_during_test"`
	TimeTaken        int                   `bson:"time_taken"`
	Answer           answerPayloadDocument `bson:"answer"`
	Verdict          string                `bson:"verdict"`
	AnalysisSheetID  string                `bson:"analysis_sheet_id,omitempty"`
	SubmittedAt      time.Time             `bson:"submittedAt"`
	CreatedAt        time.Time             `bson:"createdAt"`
	UpdatedAt        time.Time             `bson:"updatedAt"`
}

// MongoRepository stores answers in MongoDB.
type MongoRepository struct {
	answers *mongo.Collection
}

// NewMongoRepository creates a new MongoRepository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{answers: db.Collection(answersCollection)}
}

func (r *MongoRepository) Create(ctx context.Context, a *model.Answer) (*model.Answer, error) {
	stored := *a
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	stored.UpdatedAt = stored.CreatedAt

	if _, err := r.answers.InsertOne(ctx, toAnswerDocument(&stored)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.Get(ctx, stored.ID)
		}
		return nil, fmt.Errorf("failed to insert answer: %w", err)
	}
	return &stored, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*model.Answer, error) {
	var doc answerDocument
	if err := r.answers.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return fromAnswerDocument(&doc), nil
}

func (r *MongoRepository) List(ctx context.Context, f Filter) ([]*model.Answer, error) {
	filter := bson.M{}
	if f.QuestionID != "" {
		filter["question_id"] = f.QuestionID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Verdict != "" {
		filter["verdict"] = f.Verdict
	}
	if f.TestID != "" {
		filter["solved_during_test.test_id"] = f.TestID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.answers.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer cur.Close(ctx)

	var docs []answerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}

	out := make([]*model.Answer, 0, len(docs))
	for i := range docs {
		out = append(out, fromAnswerDocument(&docs[i]))
	}
	return out, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, a *model.Answer) (*model.Answer, error) {
	doc := toAnswerDocument(a)
	set := bson.M{
		"question_id":        doc.QuestionID,
		"user_id":            doc.UserID,
		"question_type":      doc.QuestionType,
		"solved_during_test": doc.SolvedDuringTest,
		"time_taken":         doc.TimeTaken,
		"answer":             doc.Answer,
		"verdict":            doc.Verdict,
		"analysis_sheet_id":  doc.AnalysisSheetID,
		"submittedAt":        doc.SubmittedAt,
		"updatedAt":          time.Now().UTC().Truncate(time.Millisecond),
	}

	var updated answerDocument
	err := r.answers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update answer: %w", err)
	}
	return fromAnswerDocument(&updated), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.answers.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func toAnswerDocument(a *model.Answer) *answerDocument {
	doc := &answerDocument{
		ID:              a.ID,
		QuestionID:      a.QuestionID,
		UserID:          a.UserID,
		QuestionType:    string(a.QuestionType),
		TimeTaken:       a.TimeTaken,
		Verdict:         string(a.Verdict),
		AnalysisSheetID: a.AnalysisSheetID,
		SubmittedAt:     a.SubmittedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if tc := a.SolvedDuringTest; tc != nil {
		doc.SolvedDuringTest = &testContextDocument{
			TestType:                 string(tc.TestType),
			TestID:                   tc.TestID,
			DurationPassedWhenSolved: tc.DurationPassedWhenSolved,
			MarkedAs:                 string(tc.MarkedAs),
		}
	}

	switch p := a.Answer.(type) {
	case model.InputAnswer:
		doc.Answer.Input = &p.Input
	case model.SingleSelectAnswer:
		doc.Answer.SelectedOption = &p.SelectedOption
	case model.MultiSelectAnswer:
		doc.Answer.SelectedOptions = p.SelectedOptions
	}
	return doc
}

func fromAnswerDocument(doc *answerDocument) *model.Answer {
	a := &model.Answer{
		ID:              doc.ID,
		QuestionID:      doc.QuestionID,
		UserID:          doc.UserID,
		QuestionType:    model.AnswerType(doc.QuestionType),
		TimeTaken:       doc.TimeTaken,
		Verdict:         model.Verdict(doc.Verdict),
		AnalysisSheetID: doc.AnalysisSheetID,
		SubmittedAt:     doc.SubmittedAt.UTC(),
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}
	if tc := doc.SolvedDuringTest; tc != nil {
		a.SolvedDuringTest = &model.TestContext{
			TestType:                 model.TestType(tc.TestType),
			TestID:                   tc.TestID,
			DurationPassedWhenSolved: tc.DurationPassedWhenSolved,
			MarkedAs:                 model.MarkedAs(tc.MarkedAs),
		}
	}

	switch a.QuestionType {
	case model.AnswerTypeInput:
		if doc.Answer.Input != nil {
			a.Answer = model.InputAnswer{Input: *doc.Answer.Input}
		}
	case model.AnswerTypeSingleSelect:
		if doc.Answer.SelectedOption != nil {
			a.Answer = model.SingleSelectAnswer{SelectedOption: *doc.Answer.SelectedOption}
		}
	case model.AnswerTypeMultiSelect:
		a.Answer = model.MultiSelectAnswer{SelectedOptions: doc.Answer.SelectedOptions}
	}
	return a
}
