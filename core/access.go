package core

import (
	"context"
	"time"
)

// Action privileged action
type Action string

const (
	ActionManageCollateral Action = "manage_collateral"
	ActionPause            Action = "pause"
	ActionCollectIncome    Action = "collect_income"
	ActionWithdraw         Action = "withdraw"
	ActionBorrow           Action = "borrow"
)

// Authorizer capability check; owner is empty for protocol-level actions
type Authorizer interface {
	Authorize(ctx context.Context, caller string, action Action, owner string) bool
}

// Delegation lets Delegate withdraw and borrow on Owner's vaults
type Delegation struct {
	ID        int64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Owner     string    `sql:"size:64;unique_index:idx_delegations_owner_delegate" json:"owner"`
	Delegate  string    `sql:"size:64;unique_index:idx_delegations_owner_delegate" json:"delegate"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// DelegationStore delegation store interface
type DelegationStore interface {
	// Grant is a no-op when the grant exists
	Grant(ctx context.Context, owner, delegate string) error
	Revoke(ctx context.Context, owner, delegate string) error
	Granted(ctx context.Context, owner, delegate string) (bool, error)
	ListByOwner(ctx context.Context, owner string) ([]*Delegation, error)
}
