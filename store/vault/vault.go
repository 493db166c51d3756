package vault

import (
	"context"

	"cdp/core"
	"cdp/store"

	"github.com/fox-one/pkg/store/db"
)

type vaultStore struct {
	db *db.DB
}

// New new vault store
func New(db *db.DB) core.VaultStore {
	return &vaultStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Vault{})
		if err := tx.AutoMigrate(core.Vault{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_vaults_owner_type", "owner", "collateral_type").Error; err != nil {
			return err
		}

		if err := tx.AddIndex("idx_vaults_type", "collateral_type").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *vaultStore) Create(ctx context.Context, vault *core.Vault) error {
	return store.Update(ctx, s.db).Create(vault).Error
}

func (s *vaultStore) Find(ctx context.Context, id string) (*core.Vault, error) {
	var vault core.Vault
	err := store.View(ctx, s.db).Where("id = ?", id).First(&vault).Error
	if store.IsErrNotFound(err) {
		return nil, core.ErrVaultNotFound
	}

	if err != nil {
		return nil, err
	}

	return &vault, nil
}

func (s *vaultStore) FindByOwner(ctx context.Context, owner, collateralType string) (*core.Vault, error) {
	var vault core.Vault
	err := store.View(ctx, s.db).
		Where("owner = ? AND collateral_type = ?", owner, collateralType).
		First(&vault).Error
	if store.IsErrNotFound(err) {
		return nil, core.ErrVaultNotFound
	}

	if err != nil {
		return nil, err
	}

	return &vault, nil
}

func (s *vaultStore) ListByCollateral(ctx context.Context, collateralType string) ([]*core.Vault, error) {
	var vaults []*core.Vault
	if err := store.View(ctx, s.db).
		Where("collateral_type = ?", collateralType).
		Order("created_at").
		Find(&vaults).Error; err != nil {
		return nil, err
	}

	return vaults, nil
}

func (s *vaultStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := store.View(ctx, s.db).Model(core.Vault{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (s *vaultStore) Update(ctx context.Context, vault *core.Vault) error {
	version := vault.Version
	vault.Version++

	tx := store.Update(ctx, s.db).Model(core.Vault{}).
		Where("id = ? AND version = ?", vault.ID, version).
		Updates(map[string]interface{}{
			"collateral_balance": vault.CollateralBalance,
			"base_debt":          vault.BaseDebt,
			"version":            vault.Version,
		})
	if tx.Error != nil {
		vault.Version = version
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		vault.Version = version
		return db.ErrOptimisticLock
	}

	return nil
}
