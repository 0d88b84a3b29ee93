// Package seed creates the demo accounts alice, bob and charlie.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"briefcase/internal/auth"
	"briefcase/internal/model"
	"briefcase/internal/repository"
)

const (
	pkg = "seed/"

	// Password is shared by every demo account.
	Password = "password123"
	// EmailDomain is appended to each demo username.
	EmailDomain = "@briefcase.com"
)

// Usernames lists the demo accounts in creation order.
var Usernames = []string{"alice", "bob", "charlie"}

// DemoUsers creates any demo account whose email is not taken yet. It is safe to run repeatedly.
func DemoUsers(ctx context.Context, users repository.UserRepository, log logrus.FieldLogger) error {
	const op = pkg + "DemoUsers"

	hash, err := auth.HashPassword(Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, name := range Usernames {
		email := name + EmailDomain
		l := log.WithField("email", email)

		_, err := users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			l.Info("user exists, skipping")
			continue
		case !errors.Is(err, model.ErrUserNotFound):
			return fmt.Errorf("%s: %w", op, err)
		}

		u, err := users.Create(ctx, &model.User{Username: name, Email: email, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		l.WithField("user_id", u.ID).Info("user created")
	}
	return nil
}
