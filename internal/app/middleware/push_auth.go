package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	httpResponse "github.com/IT-Nick/question-bank/pkg/http"
)

// ParseBearer validates an HS256 bearer token and returns its subject.
// audience is checked only when non-empty.
func ParseBearer(header string, secret []byte, audience string) (string, error) {
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if tokenStr == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid subject claim: %w", err)
	}
	return subject, nil
}

// NewPushAuth guards push endpoints. An empty secret disables the check.
func NewPushAuth(secret, audience string) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		subject, err := ParseBearer(c.Get(fiber.HeaderAuthorization), key, audience)
		if err != nil {
			return httpResponse.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization: Bearer <token> is required")
		}

		c.Locals("pushSubject", subject)
		return c.Next()
	}
}
