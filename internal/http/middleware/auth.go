package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocalKey holds the authenticated user id (int64) in Fiber's context locals.
const UserIDLocalKey = "user_id"

// TokenAuthenticator resolves an access token to a user id.
type TokenAuthenticator interface {
	Authenticate(token string) (int64, error)
}

// Auth rejects requests without a valid access token with 401. The token is read
// from the cookieName cookie first, then from an "Authorization: Bearer" header.
func Auth(authn TokenAuthenticator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			token = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		id, err := authn.Authenticate(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		c.Locals(UserIDLocalKey, id)
		return c.Next()
	}
}

// UserID returns the id stored by Auth.
func UserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(UserIDLocalKey).(int64)
	return id, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
