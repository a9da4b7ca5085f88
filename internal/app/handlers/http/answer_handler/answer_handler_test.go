package answer_handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/answers/repository"
	"github.com/IT-Nick/question-bank/internal/domain/answers/service"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

func answerBody(questionID, userID, testContext string) string {
	return fmt.Sprintf(`{
		"question_id": %q,
		"user_id": %q,
		"question_type": "multi-select",
		"solved_during_test": %s,
		"time_taken": 40,
		"answer": {"selected_options": [0, 2]},
		"verdict": "correct",
		"submittedAt": "2024-05-02T08:00:00.000Z"
	}`, questionID, userID, testContext)
}

func newApp(svc *service.AnswerService, async bool) *fiber.App {
	app := fiber.New()
	NewAnswerHandler(svc, async).Register(app.Group("/api/answers"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestAnswerHandler_SyncLifecycle(t *testing.T) {
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, nil), false)

	status, body := do(t, app, "POST", "/api/answers", answerBody("q-1", "u-1", "null"))
	require.Equal(t, fiber.StatusCreated, status)
	id := body["data"].(map[string]any)["_id"].(string)

	status, body = do(t, app, "GET", "/api/answers/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2024-05-02T08:00:00Z", body["data"].(map[string]any)["submittedAt"])

	changed := strings.Replace(answerBody("q-1", "u-1", "null"), `"correct"`, `"incorrect"`, 1)
	status, body = do(t, app, "PUT", "/api/answers/"+id, changed)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "incorrect", body["data"].(map[string]any)["verdict"])

	status, body = do(t, app, "GET", "/api/answers?verdict=incorrect", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = do(t, app, "DELETE", "/api/answers/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "DELETE", "/api/answers/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAnswerHandler_UpdateKeepsStoredID(t *testing.T) {
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, nil), false)

	status, body := do(t, app, "POST", "/api/answers", answerBody("q-1", "u-1", "null"))
	require.Equal(t, fiber.StatusCreated, status)
	id := body["data"].(map[string]any)["_id"].(string)

	status, _ = do(t, app, "PUT", "/api/answers/"+id, answerBody("q-1", "u-1", "null"))
	require.Equal(t, fiber.StatusOK, status)

	// reuses the request buffers that held the PUT path
	status, _ = do(t, app, "GET", "/api/answers/zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", "")
	require.Equal(t, fiber.StatusNotFound, status)

	status, body = do(t, app, "GET", "/api/answers", "")
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["_id"])

	status, _ = do(t, app, "GET", "/api/answers/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAnswerHandler_ScopedListings(t *testing.T) {
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, nil), false)

	inTest := `{"test_type": "mock", "test_id": "mock-7", "duration_passed_when_solved": 300, "marked_as": "accepted"}`
	for _, body := range []string{
		answerBody("q-1", "u-1", inTest),
		answerBody("q-1", "u-2", "null"),
		answerBody("q-2", "u-1", inTest),
	} {
		status, _ := do(t, app, "POST", "/api/answers", body)
		require.Equal(t, fiber.StatusCreated, status)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/answers/question/q-1", 2},
		{"/api/answers/user/u-1", 2},
		{"/api/answers/test/mock-7", 2},
		{"/api/answers/test/mock-8", 0},
		{"/api/answers?question_id=q-1&user_id=u-2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := do(t, app, "GET", tt.path, "")
			assert.Equal(t, fiber.StatusOK, status)
			assert.Len(t, body["data"], tt.want)
		})
	}
}

func TestAnswerHandler_ValidationErrors(t *testing.T) {
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, nil), false)

	body := strings.Replace(answerBody("q-1", "u-1", "null"), `{"selected_options": [0, 2]}`, `{"input": "42"}`, 1)
	status, out := do(t, app, "POST", "/api/answers", body)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, out["errors"])
}

func TestAnswerHandler_Async(t *testing.T) {
	q := queue.NewMemory(4)
	defer q.Close()
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, q), true)

	status, body := do(t, app, "POST", "/api/answers", answerBody("q-1", "u-1", "null"))
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.NotEmpty(t, body["messageId"])
}

func TestAnswerHandler_AsyncWithoutQueue(t *testing.T) {
	app := newApp(service.NewAnswerService(repository.NewMemoryRepository(), nil, nil), true)

	status, body := do(t, app, "POST", "/api/answers", answerBody("q-1", "u-1", "null"))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
}
