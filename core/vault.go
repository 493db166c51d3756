package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// Vault one owner's position in one collateral type
type Vault struct {
	ID                string       `sql:"size:36;PRIMARY_KEY" json:"id"`
	Owner             string       `sql:"size:64;unique_index:idx_vaults_owner_type" json:"owner"`
	CollateralType    string       `sql:"size:20;unique_index:idx_vaults_owner_type;index:idx_vaults_type" json:"collateral_type"`
	CollateralBalance *uint256.Int `sql:"type:varchar(78)" json:"collateral_balance"`
	// debt normalized by the rate index at the time it was last set
	BaseDebt  *uint256.Int `sql:"type:varchar(78)" json:"base_debt"`
	Version   int64        `sql:"default:0" json:"version"`
	CreatedAt time.Time    `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Clone deep copy
func (v *Vault) Clone() *Vault {
	cp := *v
	cp.CollateralBalance = clone(v.CollateralBalance)
	cp.BaseDebt = clone(v.BaseDebt)
	return &cp
}

// VaultStore vault store interface
type VaultStore interface {
	Create(ctx context.Context, vault *Vault) error
	Find(ctx context.Context, id string) (*Vault, error)
	FindByOwner(ctx context.Context, owner, collateralType string) (*Vault, error)
	ListByCollateral(ctx context.Context, collateralType string) ([]*Vault, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, vault *Vault) error
}
