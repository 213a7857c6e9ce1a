package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, NewError("op", "msg", nil))
	})

	t.Run("sentinels pass through", func(t *testing.T) {
		t.Parallel()
		wrapped := fmt.Errorf("spend: %w", domain.ErrInsufficientBalance)
		assert.Same(t, wrapped, NewError("apply_ledger", "spend failed", wrapped))
	})

	t.Run("store errors map", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, NewError("finish", "x", store.ErrSessionExists), ErrSessionAlreadyFinished)
		assert.ErrorIs(t, NewError("get", "x", store.ErrModuleNotFound), ErrNotFound)
	})

	t.Run("unexpected errors wrap", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("connection reset")
		err := NewError("apply_ledger", "failed to lock account", cause)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "apply_ledger", svcErr.Operation)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "apply_ledger operation failed: failed to lock account: connection reset", err.Error())
	})
}
