package subscriber_handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/questions/repository"
	"github.com/IT-Nick/question-bank/internal/domain/questions/service"
)

const payload = `{
	"_id": "q-42",
	"subject": "Mathematics",
	"for_class": "dropper",
	"topic": "Limits",
	"difficulty": "Easy",
	"origin": "platform",
	"question_text": "Evaluate lim x->0 sin(x)/x",
	"answer_metadata": {"answer_type": "input", "correct_answer": "1"},
	"created_by": "maths@example.com"
}`

func push(t *testing.T, eventType, payload string) string {
	t.Helper()
	envelope, err := json.Marshal(map[string]any{
		"eventType": eventType,
		"payload":   json.RawMessage(payload),
		"timestamp": 1714636800000,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"message": map[string]any{
			"data":        base64.StdEncoding.EncodeToString(envelope),
			"messageId":   "m-1",
			"orderingKey": "q-42",
		},
		"subscription": "projects/p/subscriptions/questions",
	})
	require.NoError(t, err)
	return string(body)
}

func post(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("POST", "/subscriber", strings.NewReader(body)))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestSubscriberHandler(t *testing.T) {
	repo := repository.NewMemoryRepository()
	app := fiber.New()
	app.Post("/subscriber", NewSubscriberHandler(service.NewQuestionService(repo, nil)).Handle)

	assert.Equal(t, fiber.StatusOK, post(t, app, push(t, "question_create", payload)))
	assert.Equal(t, fiber.StatusOK, post(t, app, push(t, "question_create", payload)))

	stored, err := repo.Get(context.Background(), "q-42")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.QuestionNumber)

	updated := strings.Replace(payload, `"Easy"`, `"Hard"`, 1)
	assert.Equal(t, fiber.StatusOK, post(t, app, push(t, "question_update", updated)))
	stored, err = repo.Get(context.Background(), "q-42")
	require.NoError(t, err)
	assert.Equal(t, "Hard", string(stored.Difficulty))
}

func TestSubscriberHandler_Rejects(t *testing.T) {
	app := fiber.New()
	app.Post("/subscriber", NewSubscriberHandler(service.NewQuestionService(repository.NewMemoryRepository(), nil)).Handle)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown event", push(t, "question_archive", payload), fiber.StatusBadRequest},
		{"answer event", push(t, "answer_create", payload), fiber.StatusBadRequest},
		{"invalid payload", push(t, "question_create", `{"_id": "q-1"}`), fiber.StatusBadRequest},
		{"update of missing record", push(t, "question_update", strings.Replace(payload, "q-42", "q-404", 1)), fiber.StatusNotFound},
		{"not base64", `{"message": {"data": "***"}}`, fiber.StatusInternalServerError},
		{"not json", `hello`, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, post(t, app, tt.body))
		})
	}
}
