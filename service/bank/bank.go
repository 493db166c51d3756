// Package bank is an in-memory token ledger standing in for the custody
// and stable asset contracts. It implements core.TokenService, core.FeeSink
// and core.InsuranceReserve.
package bank

import (
	"context"
	"fmt"
	"sync"

	"cdp/core"
	"cdp/pkg/ray"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// Custody account holding deposited collateral
const Custody = "custody"

// Bank in-memory balances keyed by asset then account
type Bank struct {
	stable    string
	feeSink   string
	insurance string

	mu       sync.Mutex
	balances map[string]map[string]*uint256.Int
	incomes  []*core.Income
	badDebt  map[string]*uint256.Int
	failing  map[string]error
}

// New new bank; stable is the symbol of the minted asset
func New(stable, feeSink, insurance string) *Bank {
	return &Bank{
		stable:    stable,
		feeSink:   feeSink,
		insurance: insurance,
		balances:  map[string]map[string]*uint256.Int{},
		badDebt:   map[string]*uint256.Int{},
		failing:   map[string]error{},
	}
}

// Credit gives account amount of asset out of thin air, for funding users
func (b *Bank) Credit(asset, account string, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balance(asset, account)
	bal.Add(bal, amount)
}

// Balance of account in asset
func (b *Bank) Balance(asset, account string) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return ray.Copy(b.balance(asset, account))
}

// StableBalance of account
func (b *Bank) StableBalance(account string) *uint256.Int {
	return b.Balance(b.stable, account)
}

// Supply total amount of asset held by every account
func (b *Bank) Supply(asset string) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := ray.Zero()
	for _, bal := range b.balances[asset] {
		total.Add(total, bal)
	}

	return total
}

// FailOn makes the named operation ("in", "out", "mint", "burn") fail with err
func (b *Bank) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failing, op)
		return
	}

	b.failing[op] = err
}

func (b *Bank) balance(asset, account string) *uint256.Int {
	accounts, ok := b.balances[asset]
	if !ok {
		accounts = map[string]*uint256.Int{}
		b.balances[asset] = accounts
	}

	bal, ok := accounts[account]
	if !ok {
		bal = ray.Zero()
		accounts[account] = bal
	}

	return bal
}

func (b *Bank) move(op, asset, from, to string, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failing[op]; err != nil {
		return fmt.Errorf("%s %s: %v: %w", op, asset, err, core.ErrTransferFailed)
	}

	if from != "" {
		src := b.balance(asset, from)
		if src.Lt(amount) {
			return fmt.Errorf("%s %s: %s balance %s < %s: %w", op, asset, from, src.Dec(), amount.Dec(), core.ErrTransferFailed)
		}

		src.Sub(src, amount)
	}

	if to != "" {
		dst := b.balance(asset, to)
		dst.Add(dst, amount)
	}

	return nil
}

// TransferCollateralIn implements core.TokenService
func (b *Bank) TransferCollateralIn(ctx context.Context, from, collateralType string, amount *uint256.Int) error {
	return b.move("in", collateralType, from, Custody, amount)
}

// TransferCollateralOut implements core.TokenService
func (b *Bank) TransferCollateralOut(ctx context.Context, to, collateralType string, amount *uint256.Int) error {
	return b.move("out", collateralType, Custody, to, amount)
}

// Mint implements core.TokenService
func (b *Bank) Mint(ctx context.Context, to string, amount *uint256.Int) error {
	return b.move("mint", b.stable, "", to, amount)
}

// Burn implements core.TokenService
func (b *Bank) Burn(ctx context.Context, from string, amount *uint256.Int) error {
	return b.move("burn", b.stable, from, "", amount)
}

// FeeSink view of the bank as fee sink
func (b *Bank) FeeSink() core.FeeSink { return (*feeSink)(b) }

// Insurance view of the bank as insurance reserve
func (b *Bank) Insurance() core.InsuranceReserve { return (*insurance)(b) }

// Incomes reported to the fee sink so far
func (b *Bank) Incomes() []*core.Income {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]*core.Income(nil), b.incomes...)
}

// BadDebt reported to the insurance reserve for collateralType
func (b *Bank) BadDebt(collateralType string) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return ray.Copy(b.badDebt[collateralType])
}

type feeSink Bank

func (s *feeSink) Address() string { return s.feeSink }

func (s *feeSink) OnIncome(ctx context.Context, income *core.Income) {
	s.mu.Lock()
	s.incomes = append(s.incomes, income)
	s.mu.Unlock()

	logger.FromContext(ctx).WithField("collateral", income.CollateralType).
		Infof("fee sink received %s %s", income.Amount.Dec(), income.Kind)
}

type insurance Bank

func (s *insurance) Address() string { return s.insurance }

func (s *insurance) OnBadDebt(ctx context.Context, collateralType string, amount *uint256.Int) {
	s.mu.Lock()
	total := ray.Copy(s.badDebt[collateralType])
	s.badDebt[collateralType] = total.Add(total, amount)
	s.mu.Unlock()

	logger.FromContext(ctx).WithField("collateral", collateralType).
		Warnf("insurance absorbed bad debt %s", amount.Dec())
}
