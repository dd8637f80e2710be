package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/rider-client/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExecer struct {
	mock.Mock
}

func (m *MockExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(ctx, sql)
	return pgconn.CommandTag{}, a.Error(0)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"connection class", &pgconn.PgError{Code: "08004"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"query canceled", &pgconn.PgError{Code: "57014"}, false},
		{"disk full", &pgconn.PgError{Code: "53100"}, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"wrapped pg error", fmt.Errorf("failed to save: %w", &pgconn.PgError{Code: "08006"}), true},
		{"connection refused", errors.New("dial tcp: Connection Refused"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"random error", errors.New("something unexpected"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsRetryable(tc.err))
		})
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.ChatStoreConfig{DatabaseURL: "postgres://rider@db:5432/chat", MaxConns: 3}, "rider")
	require.NoError(t, err)

	assert.Equal(t, int32(3), pc.MaxConns)
	assert.Equal(t, int32(0), pc.MinConns)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "rider", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_Errors(t *testing.T) {
	_, err := poolConfig(config.ChatStoreConfig{}, "rider")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = poolConfig(config.ChatStoreConfig{DatabaseURL: "postgres://%zz"}, "rider")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestEnsureChatSchema(t *testing.T) {
	db := new(MockExecer)
	db.On("Exec", mock.Anything, chatSchema).Return(nil).Once()
	require.NoError(t, EnsureChatSchema(context.Background(), db))

	db.On("Exec", mock.Anything, chatSchema).Return(errors.New("permission denied")).Once()
	err := EnsureChatSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat schema")
	db.AssertExpectations(t)
}

func TestClose_NilPool(t *testing.T) {
	assert.NotPanics(t, func() { Close(nil) })
}
