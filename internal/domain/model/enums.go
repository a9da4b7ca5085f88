package model

// Subject of a question.
type Subject string

const (
	SubjectPhysics     Subject = "Physics"
	SubjectChemistry   Subject = "Chemistry"
	SubjectMathematics Subject = "Mathematics"
)

// ClassLevel is the class a question is written for.
type ClassLevel string

const (
	Class11      ClassLevel = "11"
	Class12      ClassLevel = "12"
	ClassDropper ClassLevel = "dropper"
)

// Difficulty level of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Origin provenance of a question.
type Origin string

const (
	OriginPlatform Origin = "platform"
	OriginMockTest Origin = "mock_test"
	OriginPrevYear Origin = "prev_year"
)

// RequiresTestInfo reports whether questions of this origin must reference a test.
func (o Origin) RequiresTestInfo() bool {
	return o == OriginMockTest || o == OriginPrevYear
}

// AnswerType discriminates answer_metadata and the answer payload.
type AnswerType string

const (
	AnswerTypeInput        AnswerType = "input"
	AnswerTypeSingleSelect AnswerType = "single-select"
	AnswerTypeMultiSelect  AnswerType = "multi-select"
)

// TestType kind of test a question or answer is tied to.
type TestType string

const (
	TestTypeMock     TestType = "mock"
	TestTypePrevYear TestType = "prev_year"
)

// MarkedAs status of an answer inside a test.
type MarkedAs string

const (
	MarkedAsSkip            MarkedAs = "skip"
	MarkedAsReview          MarkedAs = "review"
	MarkedAsMarkedForReview MarkedAs = "marked for review"
	MarkedAsAccepted        MarkedAs = "accepted"
)

// Verdict caller-asserted correctness of an answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// Allowed values in the order they are reported in validation messages.
var (
	Subjects     = []string{string(SubjectPhysics), string(SubjectChemistry), string(SubjectMathematics)}
	ClassLevels  = []string{string(Class11), string(Class12), string(ClassDropper)}
	Difficulties = []string{string(DifficultyEasy), string(DifficultyMedium), string(DifficultyHard)}
	Origins      = []string{string(OriginPlatform), string(OriginMockTest), string(OriginPrevYear)}
	AnswerTypes  = []string{string(AnswerTypeInput), string(AnswerTypeSingleSelect), string(AnswerTypeMultiSelect)}
	TestTypes    = []string{string(TestTypeMock), string(TestTypePrevYear)}
	AnswerStatus = []string{string(MarkedAsSkip), string(MarkedAsReview), string(MarkedAsMarkedForReview), string(MarkedAsAccepted)}
	Verdicts     = []string{string(VerdictCorrect), string(VerdictIncorrect)}
)
