package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IT-Nick/question-bank/internal/domain/model"
)

var (
	subjectMsg    = "Subject must be one of: " + strings.Join(model.Subjects, ", ")
	classLevelMsg = "Class level must be one of: " + strings.Join(model.ClassLevels, ", ")
	difficultyMsg = "Difficulty must be one of: " + strings.Join(model.Difficulties, ", ")
	originMsg     = "Origin must be one of: " + strings.Join(model.Origins, ", ")
	answerTypeMsg = "Invalid discriminator value. Expected " + quoteJoin(model.AnswerTypes)
)

// ValidateQuestion validates a JSON question record.
func ValidateQuestion(data []byte, opts ...Option) Result {
	_, res := ParseQuestion(data, opts...)
	return res
}

// ParseQuestion validates a JSON question record and, when it is valid,
// returns it decoded with defaults applied. Server-assigned fields in the
// input are ignored.
func ParseQuestion(data []byte, opts ...Option) (q *model.Question, res Result) {
	defer func() {
		if r := recover(); r != nil {
			q, res = nil, unexpected("question", r)
		}
	}()

	o := newOptions(opts)
	c := &checker{}

	obj, ok := c.root(data)
	if !ok {
		return nil, c.result()
	}

	question := &model.Question{}

	if v, ok := c.enum(obj["subject"], "subject", model.Subjects, subjectMsg); ok {
		question.Subject = model.Subject(v)
	}
	if v, ok := c.enum(obj["for_class"], "for_class", model.ClassLevels, classLevelMsg); ok {
		question.ForClass = model.ClassLevel(v)
	}
	if v, ok := c.nonEmptyString(obj["topic"], "topic", "Topic is required"); ok {
		question.Topic = v
	}
	if v, ok := c.enum(obj["difficulty"], "difficulty", model.Difficulties, difficultyMsg); ok {
		question.Difficulty = model.Difficulty(v)
	}
	origin, originOK := c.enum(obj["origin"], "origin", model.Origins, originMsg)
	question.Origin = model.Origin(origin)

	testInfo, testInfoOK := c.testInfo(obj["test_info"], "test_info")
	question.TestInfo = testInfo

	if v, ok := c.nonEmptyString(obj["question_text"], "question_text", "Question text is required"); ok {
		question.QuestionText = v
	}
	question.QuestionAttachments = c.urlList(obj["question_attachments"], "question_attachments", "Question attachment must be a valid URL")
	question.AnswerMetadata = c.answerMetadata(obj["answer_metadata"], "answer_metadata")

	if present(obj["tags"]) {
		question.Tags, _ = c.stringList(obj["tags"], "tags")
	}
	if v, ok := c.string(obj["created_by"], "created_by"); ok {
		if isEmail(v) {
			question.CreatedBy = v
		} else {
			c.add("created_by", "Created by must be a valid email")
		}
	}
	question.AnswerAttachments = c.urlMap(obj["answer_attachments"], "answer_attachments", "Answer attachment must be a valid URL")

	if originOK && testInfoOK {
		c.originRules(model.Origin(origin), testInfo, o)
	}

	res = c.result()
	if !res.IsValid {
		return nil, res
	}
	return question.WithDefaults(), res
}

// originRules the cross-field rule between origin and test_info.
func (c *checker) originRules(origin model.Origin, testInfo []model.TestInfo, o options) {
	switch {
	case origin.RequiresTestInfo() && len(testInfo) == 0:
		c.add("test_info", "Test info is required for mock_test or prev_year questions")
	case origin == model.OriginPlatform && testInfo != nil && o.platformTestInfo == PlatformTestInfoStrict:
		c.add("test_info", "Test info must be null for platform questions")
	}
}

// testInfo accepts absent or null as nil; an empty list stays non-nil.
func (c *checker) testInfo(raw json.RawMessage, path string) ([]model.TestInfo, bool) {
	if !present(raw) {
		return nil, true
	}
	if kindOf(raw) != kindArray {
		c.add(path, "Expected array or null, received "+kindOf(raw))
		return nil, false
	}

	items, ok := c.array(raw, path)
	if !ok {
		return nil, false
	}

	out := make([]model.TestInfo, 0, len(items))
	allOK := true
	for i, item := range items {
		itemPath := join(path, fmt.Sprint(i))
		obj, ok := c.object(item, itemPath)
		if !ok {
			allOK = false
			continue
		}

		var info model.TestInfo
		if present(obj["test_type"]) {
			v, ok := c.enum(obj["test_type"], join(itemPath, "test_type"), model.TestTypes, "")
			allOK = allOK && ok
			info.TestType = model.TestType(v)
		}
		v, ok := c.nonEmptyString(obj["test_id"], join(itemPath, "test_id"), "Test ID is required")
		allOK = allOK && ok
		info.TestID = v

		out = append(out, info)
	}
	return out, allOK
}

func (c *checker) urlList(raw json.RawMessage, path, msg string) []string {
	if !present(raw) {
		return nil
	}
	items, ok := c.array(raw, path)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		itemPath := join(path, fmt.Sprint(i))
		s, ok := c.string(item, itemPath)
		if !ok {
			continue
		}
		if !isURL(s) {
			c.add(itemPath, msg)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *checker) urlMap(raw json.RawMessage, path, msg string) map[string]string {
	if !present(raw) {
		return nil
	}
	obj, ok := c.object(raw, path)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(obj))
	for _, key := range obj.sortedKeys() {
		itemPath := join(path, key)
		s, ok := c.string(obj[key], itemPath)
		if !ok {
			continue
		}
		if !isURL(s) {
			c.add(itemPath, msg)
			continue
		}
		out[key] = s
	}
	return out
}

// answerMetadata dispatches on answer_type into one of the three shapes.
func (c *checker) answerMetadata(raw json.RawMessage, path string) model.AnswerMetadata {
	obj, ok := c.object(raw, path)
	if !ok {
		return nil
	}

	tagPath := join(path, "answer_type")
	tag, ok := c.enum(obj["answer_type"], tagPath, model.AnswerTypes, answerTypeMsg)
	if !ok {
		return nil
	}

	switch model.AnswerType(tag) {
	case model.AnswerTypeInput:
		meta := model.InputMetadata{Options: []string{}}
		meta.CorrectAnswer, _ = c.optionalString(obj["correct_answer"], join(path, "correct_answer"))
		if present(obj["options"]) {
			if options, ok := c.stringList(obj["options"], join(path, "options")); ok {
				meta.Options = options
			}
		}
		return meta

	case model.AnswerTypeSingleSelect:
		meta := model.SingleSelectMetadata{}
		options, optionsOK := c.selectOptions(obj["options"], join(path, "options"), "Single-select questions must have at least 2 options")
		meta.Options = options
		if present(obj["correct_option"]) {
			optPath := join(path, "correct_option")
			if n, ok := c.nonNegativeInt(obj["correct_option"], optPath, "Correct option must be a non-negative index"); ok {
				if optionsOK && n >= len(options) {
					c.add(optPath, "Correct option index is out of range")
				}
				meta.CorrectOption = &n
			}
		}
		return meta

	case model.AnswerTypeMultiSelect:
		meta := model.MultiSelectMetadata{}
		options, optionsOK := c.selectOptions(obj["options"], join(path, "options"), "Multi-select questions must have at least 2 options")
		meta.Options = options
		if present(obj["correct_options"]) {
			listPath := join(path, "correct_options")
			if indexes, ok := c.indexList(obj["correct_options"], listPath); ok {
				switch {
				case len(indexes) == 0:
					c.add(listPath, "Multi-select questions must have at least 1 correct option")
				case optionsOK:
					for i, n := range indexes {
						if n >= len(options) {
							c.add(join(listPath, fmt.Sprint(i)), "Correct option index is out of range")
						}
					}
				}
				meta.CorrectOptions = indexes
			}
		}
		return meta
	}

	return nil
}

func (c *checker) selectOptions(raw json.RawMessage, path, minMsg string) ([]string, bool) {
	options, ok := c.stringList(raw, path)
	if !ok {
		return nil, false
	}
	if len(options) < 2 {
		c.add(path, minMsg)
		return options, false
	}
	return options, true
}
