package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckContext(t *testing.T) {
	t.Run("active context", func(t *testing.T) {
		assert.NoError(t, CheckContext(context.Background(), "op"))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := CheckContext(ctx, "op")
		require.Error(t, err)
		assert.Equal(t, Canceled, CodeOf(err))
		assert.Contains(t, err.Error(), "op canceled")
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ResourceNotFound, CodeOf(New(ResourceNotFound, "missing")))
	assert.Equal(t, Unknown, CodeOf(stderrors.New("plain")))

	// Wrapped chains keep the outermost code
	wrapped := Wrap(New(ResourceNotFound, "missing"), StorageFailed, "load failed")
	assert.Equal(t, StorageFailed, CodeOf(wrapped))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(New(ResourceNotFound, "missing")))
	assert.False(t, IsNotFound(New(ValidationFailed, "bad")))

	assert.True(t, IsValidation(New(ValidationFailed, "bad")))
	assert.True(t, IsValidation(New(InvalidInput, "bad")))
	assert.False(t, IsValidation(New(Timeout, "slow")))

	assert.True(t, IsLockTimeout(New(LockTimeout, "busy")))
	assert.True(t, IsIndexUnavailable(New(IndexUnavailable, "down")))
	assert.False(t, IsLockTimeout(stderrors.New("plain")))
}
