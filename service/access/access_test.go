package access

import (
	"context"
	"errors"
	"testing"

	"cdp/core"
	"cdp/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"admin"}, memory.New().Delegations())

	t.Run("owner", func(t *testing.T) {
		assert.True(t, s.Authorize(ctx, "alice", core.ActionBorrow, "alice"))
		assert.True(t, s.Authorize(ctx, "alice", core.ActionWithdraw, "alice"))
		assert.False(t, s.Authorize(ctx, "bob", core.ActionBorrow, "alice"))
		assert.False(t, s.Authorize(ctx, "", core.ActionBorrow, ""))
	})

	t.Run("delegate", func(t *testing.T) {
		require.Nil(t, s.Delegate(ctx, "alice", "bob"))
		require.Nil(t, s.Delegate(ctx, "alice", "bob"))
		assert.True(t, s.Authorize(ctx, "bob", core.ActionBorrow, "alice"))
		assert.False(t, s.Authorize(ctx, "alice", core.ActionBorrow, "bob"))

		grants, err := s.Delegates(ctx, "alice")
		require.Nil(t, err)
		require.Len(t, grants, 1)
		assert.Equal(t, "bob", grants[0].Delegate)

		require.Nil(t, s.Revoke(ctx, "alice", "bob"))
		assert.False(t, s.Authorize(ctx, "bob", core.ActionBorrow, "alice"))

		assert.Equal(t, core.ErrInvalidParameter, s.Delegate(ctx, "alice", "alice"))
	})

	t.Run("admin", func(t *testing.T) {
		for _, action := range []core.Action{core.ActionManageCollateral, core.ActionPause, core.ActionCollectIncome} {
			assert.True(t, s.Authorize(ctx, "admin", action, ""))
			assert.False(t, s.Authorize(ctx, "alice", action, ""))
		}

		// admins are not implicit delegates
		assert.False(t, s.Authorize(ctx, "admin", core.ActionWithdraw, "alice"))
	})
}

type brokenStore struct {
	core.DelegationStore
}

func (brokenStore) Granted(context.Context, string, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestAuthorizeDeniesOnStoreError(t *testing.T) {
	s := New(nil, brokenStore{})
	assert.False(t, s.Authorize(context.Background(), "bob", core.ActionBorrow, "alice"))
	assert.True(t, s.Authorize(context.Background(), "alice", core.ActionBorrow, "alice"))
}

// grants survive a new service over the same store
func TestDelegationsPersist(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	require.Nil(t, New(nil, db.Delegations()).Delegate(ctx, "alice", "bob"))
	assert.True(t, New(nil, db.Delegations()).Authorize(ctx, "bob", core.ActionWithdraw, "alice"))
}
