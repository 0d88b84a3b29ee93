package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briefcase/internal/auth"
	"briefcase/internal/logging"
	"briefcase/internal/model"
	repoMocks "briefcase/internal/repository/mocks"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	alice := &model.User{ID: 1, Email: "alice@briefcase.com", Username: "alice", PasswordHash: hash}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(m *repoMocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:     "success",
			email:    "alice@briefcase.com",
			password: "password123",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByEmail", ctx, "alice@briefcase.com").Return(alice, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "alice@briefcase.com",
			password: "nope",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByEmail", ctx, "alice@briefcase.com").Return(alice, nil)
			},
			wantErr: model.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "eve@briefcase.com",
			password: "password123",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByEmail", ctx, "eve@briefcase.com").Return(nil, model.ErrUserNotFound)
			},
			wantErr: model.ErrInvalidCredentials,
		},
		{
			name:       "empty credentials",
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantErr:    model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(repoMocks.MockUserRepository)
			tt.setupMocks(users)
			svc := NewAuthService(users, "secret", 30*time.Minute, logging.Discard())

			res, err := svc.Login(ctx, tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, alice, res.User)

				id, err := svc.Authenticate(res.Token)
				require.NoError(t, err)
				assert.Equal(t, int64(1), id)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginRepositoryError(t *testing.T) {
	users := new(repoMocks.MockUserRepository)
	users.On("FindByEmail", mock.Anything, "alice@briefcase.com").Return(nil, errors.New("db down"))
	svc := NewAuthService(users, "secret", time.Minute, logging.Discard())

	_, err := svc.Login(context.Background(), "alice@briefcase.com", "x")

	assert.ErrorContains(t, err, "db down")
	assert.False(t, errors.Is(err, model.ErrInvalidCredentials))
}

func TestAuthService_Authenticate(t *testing.T) {
	svc := NewAuthService(new(repoMocks.MockUserRepository), "secret", time.Minute, logging.Discard())

	_, err := svc.Authenticate("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, err := auth.GenerateToken(1, []byte("other-secret"), time.Minute, time.Now())
	require.NoError(t, err)
	_, err = svc.Authenticate(other)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	users := new(repoMocks.MockUserRepository)
	users.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1, Username: "alice"}, nil)
	users.On("FindByID", ctx, int64(9)).Return(nil, model.ErrUserNotFound)
	users.On("ListExcept", ctx, int64(1)).Return([]model.User{{ID: 2, Username: "bob"}}, nil)

	svc := NewUserService(users)

	me, err := svc.Me(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = svc.Me(ctx, 9)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	others, err := svc.ListOthers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	users.AssertExpectations(t)
}
