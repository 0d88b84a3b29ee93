package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"briefcase/internal/auth"
	"briefcase/internal/logging"
	"briefcase/internal/model"
	"briefcase/internal/repository"
)

// LoginResult is an issued access token and the user it belongs to.
type LoginResult struct {
	Token string
	User  *model.User
}

type AuthService interface {
	// Login verifies credentials and issues an access token. Unknown emails and wrong
	// passwords both yield model.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Authenticate returns the user id a token was issued for.
	Authenticate(token string) (int64, error)
}

type authService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	log    *logrus.Entry
}

func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, log logrus.FieldLogger) AuthService {
	return &authService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		log:    logging.Component(log, "auth_service"),
	}
}

func (a *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	op := pkg + "Login"
	log := a.log.WithField("op", op)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ErrInvalidCredentials)
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			log.Info("login for unknown email")
			return nil, fmt.Errorf("%s: %w", op, model.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		log.WithField("user_id", user.ID).Info("invalid password")
		return nil, fmt.Errorf("%s: %w", op, model.ErrInvalidCredentials)
	}

	token, err := auth.GenerateToken(user.ID, a.secret, a.ttl, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.WithField("user_id", user.ID).Debug("user logged in")
	return &LoginResult{Token: token, User: user}, nil
}

func (a *authService) Authenticate(token string) (int64, error) {
	return auth.ParseToken(token, a.secret)
}
