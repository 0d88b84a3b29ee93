package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefcase/internal/config"
	"briefcase/internal/storage"
	"briefcase/internal/storage/mocks"
)

func TestReadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		st := new(mocks.MockStorage)
		st.On("Get", ctx, "documents/a.bin").
			Return(io.NopCloser(strings.NewReader("payload")), storage.ObjectInfo{Key: "documents/a.bin", Size: 7}, nil)

		data, err := storage.ReadAll(ctx, st, "documents/a.bin")

		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
		st.AssertExpectations(t)
	})

	t.Run("get error", func(t *testing.T) {
		st := new(mocks.MockStorage)
		st.On("Get", ctx, "missing").Return(nil, storage.ObjectInfo{}, errors.New("no such key"))

		data, err := storage.ReadAll(ctx, st, "missing")

		assert.Error(t, err)
		assert.Nil(t, data)
	})
}

func TestNewMinIOValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{name: "endpoint", cfg: config.MinIOConfig{}, want: "endpoint"},
		{name: "credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, want: "credentials"},
		{name: "bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, want: "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := storage.NewMinIO(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, st)
		})
	}
}
