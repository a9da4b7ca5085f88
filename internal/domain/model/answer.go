package model

import (
	"encoding/json"
	"time"
)

// Answer is a user's submission for one question.
type Answer struct {
	ID               string        `json:"_id,omitempty"`
	QuestionID       string        `json:"question_id"`
	UserID           string        `json:"user_id"`
	QuestionType     AnswerType    `json:"question_type"`
	SolvedDuringTest *TestContext  `json:"solved_during_test"`
	TimeTaken        int           `json:"time_taken"`
	Answer           AnswerPayload `json:"answer"`
	Verdict          Verdict       `json:"verdict"`
	AnalysisSheetID  string        `json:"analysis_sheet_id,omitempty"`
	SubmittedAt      time.Time     `json:"submittedAt"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// TestContext is present when the answer was given during a test.
type TestContext struct {
	TestType                 TestType `json:"test_type"`
	TestID                   string   `json:"test_id"`
	DurationPassedWhenSolved int      `json:"duration_passed_when_solved"`
	MarkedAs                 MarkedAs `json:"marked_as"`
}

// UnmarshalJSON decodes the answer payload according to question_type.
func (a *Answer) UnmarshalJSON(data []byte) error {
	type alias Answer
	aux := struct {
		*alias
		Answer json.RawMessage `json:"answer"`
	}{alias: (*alias)(a)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.Answer = nil
	if len(aux.Answer) > 0 && string(aux.Answer) != "null" {
		payload, err := UnmarshalAnswerPayload(a.QuestionType, aux.Answer)
		if err != nil {
			return err
		}
		a.Answer = payload
	}

	return nil
}
