package delegation

import (
	"context"

	"cdp/core"
	"cdp/store"

	"github.com/fox-one/pkg/store/db"
)

type delegationStore struct {
	db *db.DB
}

// New new delegation store
func New(db *db.DB) core.DelegationStore {
	return &delegationStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Delegation{})
		if err := tx.AutoMigrate(core.Delegation{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_delegations_owner_delegate", "owner", "delegate").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *delegationStore) Grant(ctx context.Context, owner, delegate string) error {
	var d core.Delegation
	return store.Update(ctx, s.db).
		Where(core.Delegation{Owner: owner, Delegate: delegate}).
		FirstOrCreate(&d).Error
}

func (s *delegationStore) Revoke(ctx context.Context, owner, delegate string) error {
	return store.Update(ctx, s.db).
		Where("owner = ? AND delegate = ?", owner, delegate).
		Delete(&core.Delegation{}).Error
}

func (s *delegationStore) Granted(ctx context.Context, owner, delegate string) (bool, error) {
	var count int64
	if err := store.View(ctx, s.db).Model(core.Delegation{}).
		Where("owner = ? AND delegate = ?", owner, delegate).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *delegationStore) ListByOwner(ctx context.Context, owner string) ([]*core.Delegation, error) {
	var delegations []*core.Delegation
	if err := store.View(ctx, s.db).
		Where("owner = ?", owner).
		Order("id").
		Find(&delegations).Error; err != nil {
		return nil, err
	}

	return delegations, nil
}
