package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"briefcase/internal/http/middleware"
	"briefcase/internal/model"
	"briefcase/internal/service"
)

// CookieConfig describes the access token cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// Login verifies credentials, sets the HttpOnly token cookie and returns the token.
func Login(svc service.AuthService, cookie CookieConfig, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "email and password are required")
		}

		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, model.ErrInvalidCredentials) {
				return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "incorrect email or password")
			}
			return writeServiceError(c, log, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    res.Token,
			Path:     "/",
			MaxAge:   int(cookie.TTL / time.Second),
			Secure:   cookie.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(loginResponse{AccessToken: res.Token, TokenType: "bearer", User: res.User})
	}
}

// Logout clears the token cookie. Tokens are stateless, so nothing is revoked server side.
func Logout(cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.ClearCookie(cookie.Name)
		return c.JSON(fiber.Map{"message": "logged out"})
	}
}

// Me returns the authenticated user.
func Me(svc service.UserService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		u, err := svc.Me(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				return fiber.ErrUnauthorized
			}
			return writeServiceError(c, log, err)
		}
		return c.JSON(u)
	}
}

// ListUsers returns everyone except the caller.
func ListUsers(svc service.UserService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		users, err := svc.ListOthers(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(users)
	}
}
