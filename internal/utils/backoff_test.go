package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_RetriesUntilSuccess(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3)
	calls := 0
	err := b.Do(context.Background(), func(i int) error {
		calls++
		if i < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestBackoff_GivesUpAfterMaxRetries(t *testing.T) {
	b := NewBackoff(time.Millisecond, 2)
	calls := 0
	boom := errors.New("boom")
	err := b.Do(context.Background(), func(int) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestBackoff_PermanentStopsImmediately(t *testing.T) {
	b := NewBackoff(time.Millisecond, 5)
	calls := 0
	notFound := errors.New("not found")
	err := b.Do(context.Background(), func(int) error {
		calls++
		return Permanent(notFound)
	})
	require.Equal(t, notFound, err)
	require.Equal(t, 1, calls)
	require.NoError(t, Permanent(nil))
}

func TestBackoff_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBackoff(time.Hour, 3)
	err := b.Do(ctx, func(int) error {
		cancel()
		return errors.New("retry me")
	})
	require.ErrorIs(t, err, context.Canceled)
}
