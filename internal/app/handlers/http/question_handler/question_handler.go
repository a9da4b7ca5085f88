package question_handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/IT-Nick/question-bank/internal/domain/questions/repository"
	"github.com/IT-Nick/question-bank/internal/domain/questions/service"
	httpResponse "github.com/IT-Nick/question-bank/pkg/http"
)

// QuestionHandler serves /api/questions.
type QuestionHandler struct {
	questionService *service.QuestionService
	async           bool
}

// NewQuestionHandler creates a new QuestionHandler. With async set, create
// and update are queued instead of written.
func NewQuestionHandler(questionService *service.QuestionService, async bool) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, async: async}
}

// Register mounts the question routes on router.
func (h *QuestionHandler) Register(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

func (h *QuestionHandler) Create(c *fiber.Ctx) error {
	if h.async {
		messageID, err := h.questionService.EnqueueCreate(c.UserContext(), c.Body())
		if err != nil {
			return httpResponse.Fail(c, err, "Failed to queue question")
		}
		return httpResponse.Accepted(c, messageID)
	}

	question, err := h.questionService.Create(c.UserContext(), c.Body())
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to create question")
	}
	return httpResponse.Success(c, fiber.StatusCreated, "Question created successfully", question)
}

func (h *QuestionHandler) Get(c *fiber.Ctx) error {
	question, err := h.questionService.Get(c.UserContext(), utils.CopyString(c.Params("id")))
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to get question")
	}
	return httpResponse.Success(c, fiber.StatusOK, "", question)
}

// List filters by the subject, for_class, topic, difficulty and origin query parameters.
func (h *QuestionHandler) List(c *fiber.Ctx) error {
	questions, err := h.questionService.List(c.UserContext(), repository.Filter{
		Subject:    c.Query("subject"),
		ForClass:   c.Query("for_class"),
		Topic:      c.Query("topic"),
		Difficulty: c.Query("difficulty"),
		Origin:     c.Query("origin"),
	})
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to list questions")
	}
	return httpResponse.Success(c, fiber.StatusOK, "", questions)
}

func (h *QuestionHandler) Update(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))

	if h.async {
		messageID, err := h.questionService.EnqueueUpdate(c.UserContext(), id, c.Body())
		if err != nil {
			return httpResponse.Fail(c, err, "Failed to queue question update")
		}
		return httpResponse.Accepted(c, messageID)
	}

	question, err := h.questionService.Update(c.UserContext(), id, c.Body())
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to update question")
	}
	return httpResponse.Success(c, fiber.StatusOK, "Question updated successfully", question)
}

func (h *QuestionHandler) Delete(c *fiber.Ctx) error {
	if err := h.questionService.Delete(c.UserContext(), utils.CopyString(c.Params("id"))); err != nil {
		return httpResponse.Fail(c, err, "Failed to delete question")
	}
	return httpResponse.Success(c, fiber.StatusOK, "Question deleted successfully", nil)
}
