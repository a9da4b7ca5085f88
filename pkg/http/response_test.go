package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
)

func call(t *testing.T, h fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestFail(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validation.NewError("topic: Topic is required"), fiber.StatusBadRequest},
		{"not found", fmt.Errorf("failed to get question: %w", errs.ErrNotFound), fiber.StatusNotFound},
		{"unknown event", fmt.Errorf("%w: %q", errs.ErrUnknownEvent, "quiz_create"), fiber.StatusBadRequest},
		{"async disabled", errs.ErrAsyncDisabled, fiber.StatusServiceUnavailable},
		{"infrastructure", errors.New("connection refused"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, func(c *fiber.Ctx) error {
				return Fail(c, tt.err, "Failed to get question")
			})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestFail_ValidationListsErrors(t *testing.T) {
	_, body := call(t, func(c *fiber.Ctx) error {
		return Fail(c, validation.NewError("a: one", "b: two"), "ignored")
	})
	assert.Equal(t, []any{"a: one", "b: two"}, body["errors"])
	assert.NotContains(t, body, "message")
}

func TestFail_InfrastructureCarriesErrorText(t *testing.T) {
	_, body := call(t, func(c *fiber.Ctx) error {
		return Fail(c, errors.New("connection refused"), "Failed to create answer")
	})
	assert.Equal(t, "Failed to create answer", body["message"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestSuccessAndAccepted(t *testing.T) {
	status, body := call(t, func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, "Question created successfully", fiber.Map{"_id": "q-1"})
	})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Question created successfully", body["message"])
	assert.Equal(t, map[string]any{"_id": "q-1"}, body["data"])

	status, body = call(t, func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusOK, "Question deleted successfully", nil)
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, body, "data")

	status, body = call(t, func(c *fiber.Ctx) error {
		return Accepted(c, "m-1")
	})
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, "m-1", body["messageId"])
}
