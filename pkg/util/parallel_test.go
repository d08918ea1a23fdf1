package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelRunsAll(t *testing.T) {
	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4}, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Load())
}

func TestParallelReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallel(context.Background(), []string{"players", "wads"}, 1, func(_ context.Context, s string) error {
		if s == "players" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelEmpty(t *testing.T) {
	assert.NoError(t, Parallel(context.Background(), nil, 4, func(context.Context, int) error { return nil }))
}
