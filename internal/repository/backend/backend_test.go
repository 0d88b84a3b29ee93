package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefcase/internal/config"
	"briefcase/internal/logging"
	"briefcase/internal/seed"
	"briefcase/internal/service"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, &config.AppConfig{StoreBackend: config.StoreMemory}, logging.Discard())
	require.NoError(t, err)
	defer b.Close()

	assert.NoError(t, b.Pinger.PingContext(ctx))

	for _, name := range seed.Usernames {
		u, err := b.Users.FindByEmail(ctx, name+seed.EmailDomain)
		require.NoError(t, err)
		assert.Equal(t, name, u.Username)
	}
}

func TestOpenMemoryAllowsDemoLogin(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, &config.AppConfig{StoreBackend: config.StoreMemory}, logging.Discard())
	require.NoError(t, err)

	authSvc := service.NewAuthService(b.Users, "test-secret", 30*time.Minute, logging.Discard())
	res, err := authSvc.Login(ctx, "alice@briefcase.com", seed.Password)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.Username)

	id, err := authSvc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id)
}

func TestOpenUnknownBackend(t *testing.T) {
	b, err := Open(context.Background(), &config.AppConfig{StoreBackend: "sqlite"}, logging.Discard())
	assert.Error(t, err)
	assert.Nil(t, b)
}
