package answer_handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/IT-Nick/question-bank/internal/domain/answers/repository"
	"github.com/IT-Nick/question-bank/internal/domain/answers/service"
	httpResponse "github.com/IT-Nick/question-bank/pkg/http"
)

// AnswerHandler serves /api/answers.
type AnswerHandler struct {
	answerService *service.AnswerService
	async         bool
}

// NewAnswerHandler creates a new AnswerHandler. With async set, create and
// update are queued instead of written.
func NewAnswerHandler(answerService *service.AnswerService, async bool) *AnswerHandler {
	return &AnswerHandler{answerService: answerService, async: async}
}

// Register mounts the answer routes on router. Scoped listings go before /:id.
func (h *AnswerHandler) Register(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/question/:questionId", h.ListByQuestion)
	router.Get("/user/:userId", h.ListByUser)
	router.Get("/test/:testId", h.ListByTest)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

func (h *AnswerHandler) Create(c *fiber.Ctx) error {
	if h.async {
		messageID, err := h.answerService.EnqueueCreate(c.UserContext(), c.Body())
		if err != nil {
			return httpResponse.Fail(c, err, "Failed to queue answer")
		}
		return httpResponse.Accepted(c, messageID)
	}

	answer, err := h.answerService.Create(c.UserContext(), c.Body())
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to create answer")
	}
	return httpResponse.Success(c, fiber.StatusCreated, "Answer created successfully", answer)
}

func (h *AnswerHandler) Get(c *fiber.Ctx) error {
	answer, err := h.answerService.Get(c.UserContext(), utils.CopyString(c.Params("id")))
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to get answer")
	}
	return httpResponse.Success(c, fiber.StatusOK, "", answer)
}

// List filters by the question_id, user_id, verdict and test_id query parameters.
func (h *AnswerHandler) List(c *fiber.Ctx) error {
	return h.list(c, repository.Filter{
		QuestionID: c.Query("question_id"),
		UserID:     c.Query("user_id"),
		Verdict:    c.Query("verdict"),
		TestID:     c.Query("test_id"),
	})
}

func (h *AnswerHandler) ListByQuestion(c *fiber.Ctx) error {
	return h.list(c, repository.Filter{QuestionID: c.Params("questionId")})
}

func (h *AnswerHandler) ListByUser(c *fiber.Ctx) error {
	return h.list(c, repository.Filter{UserID: c.Params("userId")})
}

// ListByTest returns the answers submitted during the given test.
func (h *AnswerHandler) ListByTest(c *fiber.Ctx) error {
	return h.list(c, repository.Filter{TestID: c.Params("testId")})
}

func (h *AnswerHandler) list(c *fiber.Ctx, f repository.Filter) error {
	answers, err := h.answerService.List(c.UserContext(), f)
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to list answers")
	}
	return httpResponse.Success(c, fiber.StatusOK, "", answers)
}

func (h *AnswerHandler) Update(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))

	if h.async {
		messageID, err := h.answerService.EnqueueUpdate(c.UserContext(), id, c.Body())
		if err != nil {
			return httpResponse.Fail(c, err, "Failed to queue answer update")
		}
		return httpResponse.Accepted(c, messageID)
	}

	answer, err := h.answerService.Update(c.UserContext(), id, c.Body())
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to update answer")
	}
	return httpResponse.Success(c, fiber.StatusOK, "Answer updated successfully", answer)
}

func (h *AnswerHandler) Delete(c *fiber.Ctx) error {
	if err := h.answerService.Delete(c.UserContext(), utils.CopyString(c.Params("id"))); err != nil {
		return httpResponse.Fail(c, err, "Failed to delete answer")
	}
	return httpResponse.Success(c, fiber.StatusOK, "Answer deleted successfully", nil)
}
