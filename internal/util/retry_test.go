package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryOnLock_SucceedsAfterLock(t *testing.T) {
	calls := 0
	err := RetryOnLock(func() error {
		calls++
		if calls == 1 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryOnLock_OtherErrorsReturnImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("constraint failed")
	err := RetryOnLock(func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnLockWithResult_GivesUp(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps through the backoff schedule")
	}

	calls := 0
	result, err := RetryOnLockWithResult(func() (int, error) {
		calls++
		return calls, errors.New("database is locked")
	})

	require.Error(t, err)
	assert.Equal(t, maxLockRetries, calls)
	assert.Equal(t, maxLockRetries, result)
}

func TestIsLockError(t *testing.T) {
	assert.False(t, IsLockError(nil))
	assert.True(t, IsLockError(errors.New("database is locked")))
	assert.True(t, IsLockError(errors.New("database table is locked: locations")))
	assert.False(t, IsLockError(errors.New("no such table")))
}
