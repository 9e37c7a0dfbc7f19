package infra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRedisClientValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisClient(ctx, "")
	require.ErrorContains(t, err, "redis url is required")
	_, err = NewRedisClient(ctx, "not a url")
	require.ErrorContains(t, err, "parse redis url")
}

func TestNewPostgresPoolValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewPostgresPool(ctx, "")
	require.ErrorContains(t, err, "database url is required")
	_, err = NewPostgresPool(ctx, "postgres://%zz")
	require.ErrorContains(t, err, "parse postgres config")
}
