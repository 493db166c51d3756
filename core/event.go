package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx/types"
)

// EventKind operation kind
type EventKind string

const (
	EventOpen          EventKind = "open"
	EventDeposit       EventKind = "deposit"
	EventWithdraw      EventKind = "withdraw"
	EventBorrow        EventKind = "borrow"
	EventDepositBorrow EventKind = "deposit_borrow"
	EventRepay         EventKind = "repay"
	EventLiquidate     EventKind = "liquidate"
	EventRefresh       EventKind = "refresh"
	EventCollectIncome EventKind = "collect_income"
	EventSetCollateral EventKind = "set_collateral"
	EventPause         EventKind = "pause"
)

const (
	// EventKeyDeposit collateral deposited alongside a borrow
	EventKeyDeposit = "deposit"
	// EventKeyFee origination fee routed to the fee sink
	EventKeyFee = "fee"
	// EventKeyNetAmount amount minted to the borrower after fees
	EventKeyNetAmount = "net_amount"
	// EventKeyIndex cumulative rate index at the time of the event
	EventKeyIndex = "index"
	// EventKeyIncome interest income accrued by the refresh
	EventKeyIncome = "income"
	// EventKeyLiquidator liquidator user id
	EventKeyLiquidator = "liquidator"
	// EventKeySeized gross collateral removed from the vault
	EventKeySeized = "seized"
	// EventKeyLiquidatorCollateral collateral paid to the liquidator
	EventKeyLiquidatorCollateral = "liquidator_collateral"
	// EventKeyInsuranceCollateral collateral paid to the insurance reserve
	EventKeyInsuranceCollateral = "insurance_collateral"
	// EventKeyBadDebt debt written off
	EventKeyBadDebt = "bad_debt"
	// EventKeyHealthBefore health factor before liquidation
	EventKeyHealthBefore = "health_before"
	// EventKeyCapped whether the seizure was capped at the vault balance
	EventKeyCapped = "capped"
	// EventKeyPaused pause flag
	EventKeyPaused = "paused"
)

// EventExtra extra data
type EventExtra map[string]interface{}

// NewEventExtra new event extra instance
func NewEventExtra() EventExtra {
	return make(EventExtra)
}

// Put put data
func (e EventExtra) Put(key string, value interface{}) {
	e[key] = value
}

// Format format as []byte by default
func (e EventExtra) Format() []byte {
	bs, err := json.Marshal(e)
	if err != nil {
		return []byte("{}")
	}

	return bs
}

// Event record of one committed operation, for off-ledger observers
type Event struct {
	ID             int64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	TraceID        string    `sql:"size:36;unique_index:idx_events_trace_id" json:"trace_id,omitempty"`
	Kind           EventKind `sql:"size:20" json:"kind,omitempty"`
	VaultID        string    `sql:"size:36;index:idx_events_vault_id" json:"vault_id,omitempty"`
	CollateralType string    `sql:"size:20" json:"collateral_type,omitempty"`
	Caller         string    `sql:"size:64" json:"caller,omitempty"`

	Amount *uint256.Int `sql:"type:varchar(78);default:null" json:"amount,omitempty"`

	CollateralBefore *uint256.Int `sql:"type:varchar(78);default:null" json:"collateral_before,omitempty"`
	CollateralAfter  *uint256.Int `sql:"type:varchar(78);default:null" json:"collateral_after,omitempty"`
	BaseDebtBefore   *uint256.Int `sql:"type:varchar(78);default:null" json:"base_debt_before,omitempty"`
	BaseDebtAfter    *uint256.Int `sql:"type:varchar(78);default:null" json:"base_debt_after,omitempty"`
	DebtBefore       *uint256.Int `sql:"type:varchar(78);default:null" json:"debt_before,omitempty"`
	DebtAfter        *uint256.Int `sql:"type:varchar(78);default:null" json:"debt_after,omitempty"`
	// health factor after the operation, RAY; empty when debt is zero
	Health *uint256.Int `sql:"type:varchar(78);default:null" json:"health,omitempty"`

	Data      types.JSONText `sql:"type:TEXT" json:"data,omitempty"`
	CreatedAt time.Time      `sql:"default:CURRENT_TIMESTAMP;index:idx_events_created_at" json:"created_at,omitempty"`
}

// SetExtraData set extra data
func (e *Event) SetExtraData(extra EventExtra) {
	data := []byte("{}")
	if extra != nil {
		data = extra.Format()
	}

	e.Data = data
}

// Before records the vault state before the operation
func (e *Event) Before(v *Vault, debt *uint256.Int) {
	e.CollateralBefore = clone(v.CollateralBalance)
	e.BaseDebtBefore = clone(v.BaseDebt)
	e.DebtBefore = clone(debt)
}

// After records the vault state after the operation
func (e *Event) After(v *Vault, debt *uint256.Int) {
	e.CollateralAfter = clone(v.CollateralBalance)
	e.BaseDebtAfter = clone(v.BaseDebt)
	e.DebtAfter = clone(debt)
}

// EventStore event store interface
type EventStore interface {
	Create(ctx context.Context, event *Event) error
	// FindTrace event recorded with traceID, nil when there is none
	FindTrace(ctx context.Context, traceID string) (*Event, error)
	// List events with id > fromID, optionally filtered by vault
	List(ctx context.Context, vaultID string, fromID int64, limit int) ([]*Event, error)
}
