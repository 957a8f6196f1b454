package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "userID"

// New returns a Fiber middleware that validates the bearer token issued by
// the identity provider and stores the caller's subject in request locals.
func New(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		tokenStr := ExtractToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": true, "message": "authorization token is required",
			})
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			msg := "invalid or expired token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token has expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": true, "message": msg,
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": true, "message": "invalid token claims",
			})
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": true, "message": "token is missing a subject",
			})
		}

		c.Locals(userIDKey, sub)
		return c.Next()
	}
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// UserID returns the authenticated caller's subject, or "" when the
// middleware did not run.
func UserID(c *fiber.Ctx) string {
	if sub, ok := c.Locals(userIDKey).(string); ok {
		return sub
	}
	return ""
}
