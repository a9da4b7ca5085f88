package validation

import (
	"encoding/json"
	"time"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

// answerKeys the payload field each question type must carry.
var answerKeys = map[model.AnswerType]string{
	model.AnswerTypeInput:        "input",
	model.AnswerTypeSingleSelect: "selected_option",
	model.AnswerTypeMultiSelect:  "selected_options",
}

// ValidateAnswer validates a JSON answer submission.
func ValidateAnswer(data []byte) Result {
	_, res := ParseAnswer(data)
	return res
}

// ParseAnswer validates a JSON answer submission and, when it is valid,
// returns it decoded. The verdict is taken as supplied.
func ParseAnswer(data []byte) (a *model.Answer, res Result) {
	defer func() {
		if r := recover(); r != nil {
			a, res = nil, unexpected("answer", r)
		}
	}()

	c := &checker{}

	obj, ok := c.root(data)
	if !ok {
		return nil, c.result()
	}

	answer := &model.Answer{}

	if v, ok := c.nonEmptyString(obj["question_id"], "question_id", "Question ID is required"); ok {
		answer.QuestionID = v
	}
	if v, ok := c.nonEmptyString(obj["user_id"], "user_id", "User ID is required"); ok {
		answer.UserID = v
	}
	answer.SolvedDuringTest = c.testContext(obj["solved_during_test"], "solved_during_test")

	if n, ok := c.nonNegativeInt(obj["time_taken"], "time_taken", "Time taken must be a positive number"); ok {
		answer.TimeTaken = n
	}
	if v, ok := c.enum(obj["verdict"], "verdict", model.Verdicts, ""); ok {
		answer.Verdict = model.Verdict(v)
	}
	if v, ok := c.optionalString(obj["analysis_sheet_id"], "analysis_sheet_id"); ok && v != nil {
		answer.AnalysisSheetID = *v
	}
	if v, ok := c.string(obj["submittedAt"], "submittedAt"); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			answer.SubmittedAt = ts.UTC()
		} else {
			c.add("submittedAt", "Submitted at must be a valid ISO datetime")
		}
	}

	questionType, typeOK := c.enum(obj["question_type"], "question_type", model.AnswerTypes, "")
	answer.QuestionType = model.AnswerType(questionType)

	payload, ok := c.object(obj["answer"], "answer")
	if ok {
		answer.Answer = c.answerPayload(payload, "answer", model.AnswerType(questionType), typeOK)
	}

	res = c.result()
	if !res.IsValid {
		return nil, res
	}
	return answer, res
}

// testContext accepts absent or null as nil.
func (c *checker) testContext(raw json.RawMessage, path string) *model.TestContext {
	if !present(raw) {
		return nil
	}
	obj, ok := c.object(raw, path)
	if !ok {
		return nil
	}

	tc := &model.TestContext{}
	if v, ok := c.enum(obj["test_type"], join(path, "test_type"), model.TestTypes, ""); ok {
		tc.TestType = model.TestType(v)
	}
	if v, ok := c.nonEmptyString(obj["test_id"], join(path, "test_id"), "Test ID is required"); ok {
		tc.TestID = v
	}
	if n, ok := c.nonNegativeInt(obj["duration_passed_when_solved"], join(path, "duration_passed_when_solved"), ""); ok {
		tc.DurationPassedWhenSolved = n
	}
	if v, ok := c.enum(obj["marked_as"], join(path, "marked_as"), model.AnswerStatus, ""); ok {
		tc.MarkedAs = model.MarkedAs(v)
	}
	return tc
}

// answerPayload type-checks every known key, then checks that exactly the
// key implied by questionType is populated.
func (c *checker) answerPayload(obj object, path string, questionType model.AnswerType, typeOK bool) model.AnswerPayload {
	var (
		input    string
		selected int
		multiple []int
	)
	populated := map[string]bool{}
	wellTyped := map[string]bool{}

	if raw := obj["input"]; present(raw) {
		populated["input"] = true
		input, wellTyped["input"] = c.string(raw, join(path, "input"))
	}
	if raw := obj["selected_option"]; present(raw) {
		populated["selected_option"] = true
		selected, wellTyped["selected_option"] = c.nonNegativeInt(raw, join(path, "selected_option"), "")
	}
	if raw := obj["selected_options"]; present(raw) {
		populated["selected_options"] = true
		multiple, wellTyped["selected_options"] = c.indexList(raw, join(path, "selected_options"))
	}

	if !typeOK {
		return nil
	}

	want := answerKeys[questionType]
	shapeOK := populated[want] && len(populated) == 1
	if shapeOK && wellTyped[want] {
		switch questionType {
		case model.AnswerTypeInput:
			shapeOK = input != ""
		case model.AnswerTypeMultiSelect:
			shapeOK = len(multiple) > 0
		}
	}
	if !shapeOK {
		c.add(path, "Answer format does not match question type: "+string(questionType))
		return nil
	}
	if !wellTyped[want] {
		return nil
	}

	switch questionType {
	case model.AnswerTypeInput:
		return model.InputAnswer{Input: input}
	case model.AnswerTypeSingleSelect:
		return model.SingleSelectAnswer{SelectedOption: selected}
	default:
		return model.MultiSelectAnswer{SelectedOptions: multiple}
	}
}
