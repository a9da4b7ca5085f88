package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "push-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseBearer(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name     string
		header   string
		audience string
		wantErr  bool
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "pusher", "exp": exp}), "", false},
		{"valid audience", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "pusher", "aud": "bank", "exp": exp}), "bank", false},
		{"wrong audience", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "pusher", "aud": "other", "exp": exp}), "bank", true},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "pusher", "exp": exp}), "", true},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "pusher", "exp": time.Now().Add(-time.Hour).Unix()}), "", true},
		{"none algorithm", "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "pusher"}), "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := ParseBearer(tt.header, []byte(secret), tt.audience)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pusher", subject)
		})
	}
}

func TestNewPushAuth(t *testing.T) {
	app := fiber.New()
	app.Post("/subscriber", NewPushAuth(secret, ""), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("pushSubject").(string))
	})

	req := httptest.NewRequest("POST", "/subscriber", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/subscriber", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "pusher"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestNewPushAuth_Disabled(t *testing.T) {
	app := fiber.New()
	app.Post("/subscriber", NewPushAuth("", ""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/subscriber", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
