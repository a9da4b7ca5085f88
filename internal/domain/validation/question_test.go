package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

func physicsQuestion() map[string]any {
	return map[string]any{
		"subject":         "Physics",
		"for_class":       "11",
		"topic":           "Mechanics",
		"difficulty":      "Medium",
		"origin":          "platform",
		"test_info":       nil,
		"question_text":   "A block slides down a frictionless incline...",
		"answer_metadata": map[string]any{"answer_type": "input"},
		"created_by":      "a@b.com",
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestValidateQuestion_Valid(t *testing.T) {
	res := ValidateQuestion(mustJSON(t, physicsQuestion()))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())
}

func TestParseQuestion_AppliesDefaults(t *testing.T) {
	q, res := ParseQuestion(mustJSON(t, physicsQuestion()))
	require.True(t, res.IsValid, res.Errors)
	require.NotNil(t, q)

	assert.Equal(t, model.SubjectPhysics, q.Subject)
	assert.Equal(t, model.Class11, q.ForClass)
	assert.Nil(t, q.TestInfo)
	assert.Equal(t, []string{}, q.QuestionAttachments)
	assert.Equal(t, []string{}, q.Tags)
	assert.Equal(t, map[string]string{}, q.AnswerAttachments)

	meta, ok := q.AnswerMetadata.(model.InputMetadata)
	require.True(t, ok)
	assert.Nil(t, meta.CorrectAnswer)
	assert.Equal(t, []string{}, meta.Options)
}

func TestParseQuestion_IgnoresServerFields(t *testing.T) {
	in := physicsQuestion()
	in["_id"] = "client-chosen"
	in["questionNumber"] = 99

	q, res := ParseQuestion(mustJSON(t, in))
	require.True(t, res.IsValid, res.Errors)
	assert.Empty(t, q.ID)
	assert.Zero(t, q.QuestionNumber)
}

func TestValidateQuestion_InvalidEmail(t *testing.T) {
	in := physicsQuestion()
	in["created_by"] = "not-an-email"

	res := ValidateQuestion(mustJSON(t, in))

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"created_by: Created by must be a valid email"}, res.Errors)

	var verr *Error
	require.ErrorAs(t, res.Err(), &verr)
	assert.Equal(t, res.Errors, verr.Errors)
}

func TestValidateQuestion_MissingRequired(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"subject", "subject: Subject must be one of: Physics, Chemistry, Mathematics"},
		{"for_class", "for_class: Class level must be one of: 11, 12, dropper"},
		{"difficulty", "difficulty: Difficulty must be one of: Easy, Medium, Hard"},
		{"origin", "origin: Origin must be one of: platform, mock_test, prev_year"},
		{"topic", "topic: Required"},
		{"question_text", "question_text: Required"},
		{"answer_metadata", "answer_metadata: Required"},
		{"created_by", "created_by: Required"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := physicsQuestion()
			delete(in, tt.field)

			res := ValidateQuestion(mustJSON(t, in))

			assert.False(t, res.IsValid)
			assert.Equal(t, []string{tt.want}, res.Errors)
		})
	}
}

func TestValidateQuestion_CollectsAllErrors(t *testing.T) {
	in := physicsQuestion()
	in["subject"] = "Biology"
	in["topic"] = ""
	in["question_attachments"] = []any{"https://cdn.example.com/q.png", "nope"}
	in["answer_attachments"] = map[string]any{"b": "also nope", "a": "https://cdn.example.com/a.png"}
	in["created_by"] = "x"

	res := ValidateQuestion(mustJSON(t, in))

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"subject: Subject must be one of: Physics, Chemistry, Mathematics",
		"topic: Topic is required",
		"question_attachments.1: Question attachment must be a valid URL",
		"created_by: Created by must be a valid email",
		"answer_attachments.b: Answer attachment must be a valid URL",
	}, res.Errors)
}

func TestValidateQuestion_TestInfoRequired(t *testing.T) {
	for _, origin := range []string{"mock_test", "prev_year"} {
		t.Run(origin, func(t *testing.T) {
			in := physicsQuestion()
			in["origin"] = origin

			res := ValidateQuestion(mustJSON(t, in))
			assert.Equal(t, []string{"test_info: Test info is required for mock_test or prev_year questions"}, res.Errors)

			in["test_info"] = []any{}
			res = ValidateQuestion(mustJSON(t, in))
			assert.Equal(t, []string{"test_info: Test info is required for mock_test or prev_year questions"}, res.Errors)

			in["test_info"] = []any{map[string]any{"test_type": "mock", "test_id": "jee-2023-1"}}
			res = ValidateQuestion(mustJSON(t, in))
			assert.True(t, res.IsValid, res.Errors)
		})
	}
}

func TestValidateQuestion_PlatformTestInfoPolicy(t *testing.T) {
	in := physicsQuestion()
	in["test_info"] = []any{map[string]any{"test_id": "t-1"}}
	data := mustJSON(t, in)

	strict := ValidateQuestion(data)
	assert.False(t, strict.IsValid)
	assert.Equal(t, []string{"test_info: Test info must be null for platform questions"}, strict.Errors)

	lenient := ValidateQuestion(data, WithPlatformTestInfo(PlatformTestInfoLenient))
	assert.True(t, lenient.IsValid, lenient.Errors)

	delete(in, "test_info")
	assert.True(t, ValidateQuestion(mustJSON(t, in)).IsValid)
}

func TestValidateQuestion_TestInfoEntries(t *testing.T) {
	in := physicsQuestion()
	in["origin"] = "mock_test"
	in["test_info"] = []any{
		map[string]any{"test_type": "weekly", "test_id": "t-1"},
		map[string]any{"test_id": ""},
		"t-3",
	}

	res := ValidateQuestion(mustJSON(t, in))

	assert.Equal(t, []string{
		"test_info.0.test_type: Invalid enum value. Expected 'mock' | 'prev_year', received 'weekly'",
		"test_info.1.test_id: Test ID is required",
		"test_info.2: Expected object, received string",
	}, res.Errors)
}

func TestValidateQuestion_TestInfoWrongType(t *testing.T) {
	in := physicsQuestion()
	in["origin"] = "mock_test"
	in["test_info"] = "t-1"

	res := ValidateQuestion(mustJSON(t, in))

	assert.Equal(t, []string{"test_info: Expected array or null, received string"}, res.Errors)
}

func TestValidateQuestion_AnswerMetadata(t *testing.T) {
	tests := []struct {
		name string
		meta any
		want []string
	}{
		{
			name: "single select needs two options",
			meta: map[string]any{"answer_type": "single-select", "options": []any{"a"}, "correct_option": 0},
			want: []string{"answer_metadata.options: Single-select questions must have at least 2 options"},
		},
		{
			name: "multi select needs two options",
			meta: map[string]any{"answer_type": "multi-select", "options": []any{}, "correct_options": []any{0}},
			want: []string{"answer_metadata.options: Multi-select questions must have at least 2 options"},
		},
		{
			name: "negative correct option",
			meta: map[string]any{"answer_type": "single-select", "options": []any{"a", "b"}, "correct_option": -1},
			want: []string{"answer_metadata.correct_option: Correct option must be a non-negative index"},
		},
		{
			name: "correct option out of range",
			meta: map[string]any{"answer_type": "single-select", "options": []any{"a", "b"}, "correct_option": 2},
			want: []string{"answer_metadata.correct_option: Correct option index is out of range"},
		},
		{
			name: "fractional correct option",
			meta: map[string]any{"answer_type": "single-select", "options": []any{"a", "b"}, "correct_option": 0.5},
			want: []string{"answer_metadata.correct_option: Expected integer, received float"},
		},
		{
			name: "empty correct options",
			meta: map[string]any{"answer_type": "multi-select", "options": []any{"a", "b"}, "correct_options": []any{}},
			want: []string{"answer_metadata.correct_options: Multi-select questions must have at least 1 correct option"},
		},
		{
			name: "correct options out of range",
			meta: map[string]any{"answer_type": "multi-select", "options": []any{"a", "b"}, "correct_options": []any{1, 3}},
			want: []string{"answer_metadata.correct_options.1: Correct option index is out of range"},
		},
		{
			name: "unknown tag",
			meta: map[string]any{"answer_type": "essay"},
			want: []string{"answer_metadata.answer_type: Invalid discriminator value. Expected 'input' | 'single-select' | 'multi-select'"},
		},
		{
			name: "input correct answer type",
			meta: map[string]any{"answer_type": "input", "correct_answer": 42},
			want: []string{"answer_metadata.correct_answer: Expected string, received number"},
		},
		{
			name: "not an object",
			meta: "input",
			want: []string{"answer_metadata: Expected object, received string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := physicsQuestion()
			in["answer_metadata"] = tt.meta

			res := ValidateQuestion(mustJSON(t, in))

			assert.False(t, res.IsValid)
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestParseQuestion_SelectMetadata(t *testing.T) {
	in := physicsQuestion()
	in["answer_metadata"] = map[string]any{
		"answer_type":     "multi-select",
		"options":         []any{"2", "3", "4", "5"},
		"correct_options": []any{0, 2},
	}
	in["tags"] = []any{"kinematics"}

	q, res := ParseQuestion(mustJSON(t, in))
	require.True(t, res.IsValid, res.Errors)

	meta, ok := q.AnswerMetadata.(model.MultiSelectMetadata)
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, meta.CorrectOptions)
	assert.Equal(t, []string{"kinematics"}, q.Tags)

	out, err := json.Marshal(q)
	require.NoError(t, err)

	var back model.Question
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, q.AnswerMetadata, back.AnswerMetadata)
}

func TestValidateQuestion_RecordLevel(t *testing.T) {
	assert.Equal(t, []string{"Invalid JSON"}, ValidateQuestion([]byte(`{"subject":`)).Errors)
	assert.Equal(t, []string{"Expected object, received array"}, ValidateQuestion([]byte(`[]`)).Errors)
	assert.Equal(t, []string{"Expected object, received null"}, ValidateQuestion([]byte(`null`)).Errors)
}

func TestValidateQuestion_Deterministic(t *testing.T) {
	in := physicsQuestion()
	in["subject"] = 1
	in["answer_attachments"] = map[string]any{"z": "bad", "m": "bad", "a": "bad"}
	data := mustJSON(t, in)

	first := ValidateQuestion(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ValidateQuestion(data))
	}
}
