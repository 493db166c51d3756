package vault

import (
	"context"
	"testing"

	"cdp/core"
	"cdp/pkg/ray"
	"cdp/store/storetest"

	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultStore(t *testing.T) {
	ctx := context.Background()
	vaults := New(storetest.Open(t))

	// larger than any int64 or float64 mantissa
	huge := ray.Rays("123456789012.345678901234567890123456789")
	v := &core.Vault{
		ID:                "6f1c2a4e-7d54-4a1c-9a2f-0b7c3e1d9f10",
		Owner:             "alice",
		CollateralType:    "WETH",
		CollateralBalance: ray.Wads("1.5"),
		BaseDebt:          huge,
	}
	require.Nil(t, vaults.Create(ctx, v))

	found, err := vaults.Find(ctx, v.ID)
	require.Nil(t, err)
	assert.Equal(t, ray.Wads("1.5").Dec(), found.CollateralBalance.Dec())
	assert.Equal(t, huge.Dec(), found.BaseDebt.Dec())
	assert.Equal(t, int64(0), found.Version)

	byOwner, err := vaults.FindByOwner(ctx, "alice", "WETH")
	require.Nil(t, err)
	assert.Equal(t, v.ID, byOwner.ID)

	_, err = vaults.FindByOwner(ctx, "bob", "WETH")
	assert.Equal(t, core.ErrVaultNotFound, err)

	_, err = vaults.Find(ctx, "missing")
	assert.Equal(t, core.ErrVaultNotFound, err)

	t.Run("version guarded update", func(t *testing.T) {
		stale := found.Clone()

		found.BaseDebt = ray.Zero()
		found.CollateralBalance = new(uint256.Int).Not(ray.Zero())
		require.Nil(t, vaults.Update(ctx, found))
		assert.Equal(t, int64(1), found.Version)

		stale.BaseDebt = ray.Wads("1")
		assert.Equal(t, db.ErrOptimisticLock, vaults.Update(ctx, stale))
		assert.Equal(t, int64(0), stale.Version)

		stored, err := vaults.Find(ctx, v.ID)
		require.Nil(t, err)
		assert.True(t, stored.BaseDebt.IsZero())
		assert.Equal(t, new(uint256.Int).Not(ray.Zero()).Dec(), stored.CollateralBalance.Dec())
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("list and count", func(t *testing.T) {
		require.Nil(t, vaults.Create(ctx, &core.Vault{
			ID:                "0a5d8e36-5b8e-4bb8-a8e0-55a3a8b6f2c1",
			Owner:             "bob",
			CollateralType:    "WETH",
			CollateralBalance: ray.Zero(),
			BaseDebt:          ray.Zero(),
		}))

		list, err := vaults.ListByCollateral(ctx, "WETH")
		require.Nil(t, err)
		assert.Len(t, list, 2)

		list, err = vaults.ListByCollateral(ctx, "WBTC")
		require.Nil(t, err)
		assert.Empty(t, list)

		count, err := vaults.Count(ctx)
		require.Nil(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("one vault per owner and type", func(t *testing.T) {
		err := vaults.Create(ctx, &core.Vault{
			ID:                "9b0f8c71-3d2e-4f5a-8c6b-7e1d2a3b4c5d",
			Owner:             "alice",
			CollateralType:    "WETH",
			CollateralBalance: ray.Zero(),
			BaseDebt:          ray.Zero(),
		})
		assert.NotNil(t, err)
	})
}
