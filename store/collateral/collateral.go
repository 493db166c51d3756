package collateral

import (
	"context"

	"cdp/core"
	"cdp/store"

	"github.com/fox-one/pkg/store/db"
)

type collateralStore struct {
	db *db.DB
}

// New new collateral store
func New(db *db.DB) core.CollateralStore {
	return &collateralStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.CollateralConfig{})
		if err := tx.AutoMigrate(core.CollateralConfig{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_collaterals_type", "collateral_type").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *collateralStore) Create(ctx context.Context, cfg *core.CollateralConfig) error {
	return store.Update(ctx, s.db).Create(cfg).Error
}

func (s *collateralStore) Find(ctx context.Context, collateralType string) (*core.CollateralConfig, error) {
	var cfg core.CollateralConfig
	err := store.View(ctx, s.db).Where("collateral_type = ?", collateralType).First(&cfg).Error
	if store.IsErrNotFound(err) {
		return nil, core.ErrUnknownCollateral
	}

	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (s *collateralStore) All(ctx context.Context) ([]*core.CollateralConfig, error) {
	var cfgs []*core.CollateralConfig
	if err := store.View(ctx, s.db).Order("id").Find(&cfgs).Error; err != nil {
		return nil, err
	}

	return cfgs, nil
}

func (s *collateralStore) Update(ctx context.Context, cfg *core.CollateralConfig) error {
	version := cfg.Version
	cfg.Version++

	tx := store.Update(ctx, s.db).Model(core.CollateralConfig{}).
		Where("collateral_type = ? AND version = ?", cfg.CollateralType, version).
		Updates(cfg)
	if tx.Error != nil {
		cfg.Version = version
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		cfg.Version = version
		return db.ErrOptimisticLock
	}

	return nil
}
