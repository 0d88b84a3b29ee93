package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briefcase/internal/auth"
	"briefcase/internal/logging"
	"briefcase/internal/repository/memory"
	"briefcase/internal/repository/mocks"
)

func TestDemoUsersIsIdempotent(t *testing.T) {
	users := memory.New().Users()
	ctx := context.Background()

	require.NoError(t, DemoUsers(ctx, users, logging.Discard()))
	require.NoError(t, DemoUsers(ctx, users, logging.Discard()))

	alice, err := users.FindByEmail(ctx, "alice@briefcase.com")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(alice.PasswordHash, Password))

	others, err := users.ListExcept(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, others, 2)
}

func TestDemoUsersLookupError(t *testing.T) {
	users := new(mocks.MockUserRepository)
	users.On("FindByEmail", mock.Anything, "alice@briefcase.com").Return(nil, errors.New("connection reset"))

	err := DemoUsers(context.Background(), users, logging.Discard())

	assert.ErrorContains(t, err, "connection reset")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
