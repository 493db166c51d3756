package vault

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/id"
	"cdp/pkg/metrics"
	"cdp/pkg/ray"
	"cdp/service/access"
	"cdp/service/bank"
	"cdp/service/collateral"
	"cdp/service/ledger"
	"cdp/service/liquidation"
	"cdp/service/oracle"
	"cdp/store/memory"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin  = "admin"
	alice  = "alice"
	bob    = "bob"
	stable = "USDM"
	weth   = "WETH"
)

type harness struct {
	ctx    context.Context
	db     *memory.DB
	bank   *bank.Bank
	prices *oracle.StaticSource
	access *access.Service
	svc    *Service
	now    time.Time
}

type setup struct {
	policy         liquidation.Policy
	originationFee string
	liquidationFee string
	debtLimit      string
}

func wethConfig(s setup) core.Collateral {
	c := core.Collateral{
		Type:               weth,
		DebtLimit:          decimal.RequireFromString("1000000"),
		LiquidationRatio:   decimal.RequireFromString("1.3"),
		MinCollateralRatio: decimal.RequireFromString("1.5"),
		BorrowRate:         decimal.RequireFromString("1.000000000627937192491029811"),
		OriginationFee:     decimal.Zero,
		LiquidationBonus:   decimal.RequireFromString("0.05"),
		LiquidationFee:     decimal.Zero,
	}

	if s.originationFee != "" {
		c.OriginationFee = decimal.RequireFromString(s.originationFee)
	}

	if s.liquidationFee != "" {
		c.LiquidationFee = decimal.RequireFromString(s.liquidationFee)
	}

	if s.debtLimit != "" {
		c.DebtLimit = decimal.RequireFromString(s.debtLimit)
	}

	return c
}

func newHarness(t *testing.T, s setup) *harness {
	db := memory.New()
	h := &harness{
		ctx:    context.Background(),
		db:     db,
		bank:   bank.New(stable, "fees", "reserve"),
		prices: oracle.NewStatic(map[string]decimal.Decimal{weth: decimal.NewFromInt(2000)}),
		access: access.New([]string{admin}, db.Delegations()),
		now:    time.Unix(1_700_000_000, 0),
	}

	valuation := oracle.New(h.prices, 0, 0)
	collaterals := collateral.New(h.db.Collaterals(), h.access)
	l := ledger.New(h.db.Vaults())
	engine := liquidation.New(l, valuation, s.policy)

	h.svc = New(
		h.db.Transactor(),
		h.db.System(),
		h.db.Events(),
		collaterals,
		l,
		engine,
		valuation,
		h.access,
		h.bank,
		h.bank.FeeSink(),
		h.bank.Insurance(),
	).WithClock(func() time.Time { return h.now }).WithMetrics(metrics.New(nil))

	params, err := collateral.ParamsFromConfig(wethConfig(s))
	require.Nil(t, err)
	_, err = h.svc.SetCollateral(h.ctx, admin, weth, params)
	require.Nil(t, err)

	h.bank.Credit(weth, alice, ray.Wads("100"))
	return h
}

func defaultPolicy() setup {
	return setup{policy: liquidation.Policy{WriteOffBadDebt: true}}
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) setPrice(price int64) {
	h.prices.Set(weth, decimal.NewFromInt(price))
}

// openPosition deposits 10 WETH and borrows 12,000 for alice
func (h *harness) openPosition(t *testing.T) string {
	_, err := h.svc.DepositAndBorrow(h.ctx, alice, weth, ray.Wads("10"), ray.Wads("12000"))
	require.Nil(t, err)

	v, err := h.svc.VaultByOwner(h.ctx, alice, weth)
	require.Nil(t, err)
	return v.ID
}

func (h *harness) vault(t *testing.T, id string) *View {
	v, err := h.svc.Vault(h.ctx, id)
	require.Nil(t, err)
	return v
}

func (h *harness) events(t *testing.T) []*core.Event {
	events, err := h.svc.Events(h.ctx, "", 0, 1000)
	require.Nil(t, err)
	return events
}

func absDiff(a, b *uint256.Int) *uint256.Int {
	if a.Gt(b) {
		return new(uint256.Int).Sub(a, b)
	}
	return new(uint256.Int).Sub(b, a)
}

func within(t *testing.T, want, got *uint256.Int, tolerance *uint256.Int) {
	t.Helper()
	assert.True(t, absDiff(want, got).Cmp(tolerance) <= 0, "want %s got %s", want.Dec(), got.Dec())
}

func TestBorrowScenario(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)

	v := h.vault(t, id)
	assert.Equal(t, ray.Wads("10").Dec(), v.CollateralBalance.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(alice).Dec())
	assert.Equal(t, ray.Wads("10").Dec(), h.bank.Balance(weth, bank.Custody).Dec())
	assert.True(t, v.Healthy())

	// 20000 / 14000 < 1.5
	_, err := h.svc.Borrow(h.ctx, alice, id, ray.Wads("2000"))
	assert.Equal(t, core.ErrMinRatioViolation, err)

	v = h.vault(t, id)
	assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(alice).Dec())

	// withdrawing below the min ratio fails too
	_, err = h.svc.Withdraw(h.ctx, alice, id, ray.Wads("2"))
	assert.Equal(t, core.ErrMinRatioViolation, err)

	// 9.5 * 2000 / 12000 > 1.5
	_, err = h.svc.Withdraw(h.ctx, alice, id, ray.Wads("0.5"))
	require.Nil(t, err)
	assert.Equal(t, ray.Wads("90.5").Dec(), h.bank.Balance(weth, alice).Dec())
}

func TestLiquidationScenario(t *testing.T) {
	for _, fee := range []string{"0", "0.1"} {
		t.Run("fee "+fee, func(t *testing.T) {
			s := defaultPolicy()
			s.liquidationFee = fee
			h := newHarness(t, s)
			id := h.openPosition(t)

			_, err := h.svc.Liquidate(h.ctx, bob, id, nil)
			assert.Equal(t, core.ErrNotLiquidatable, err)

			// 15000 / 12000 = 1.25 < 1.3
			h.setPrice(1500)
			healthy, err := h.svc.IsHealthy(h.ctx, id)
			require.Nil(t, err)
			assert.False(t, healthy)

			h.bank.Credit(stable, bob, ray.Wads("12000"))
			event, err := h.svc.Liquidate(h.ctx, bob, id, nil)
			require.Nil(t, err)
			assert.Equal(t, ray.Wads("12000").Dec(), event.Amount.Dec())

			// 12000 * 1.05 / 1500
			seized := ray.Wads("8.4")
			cut, err := ray.Mul(seized, ray.Rays(fee))
			require.Nil(t, err)
			toBob := new(uint256.Int).Sub(seized, cut)

			assert.Equal(t, toBob.Dec(), h.bank.Balance(weth, bob).Dec())
			assert.Equal(t, cut.Dec(), h.bank.Balance(weth, "reserve").Dec())
			assert.True(t, h.bank.StableBalance(bob).IsZero())

			v := h.vault(t, id)
			assert.Equal(t, ray.Wads("1.6").Dec(), v.CollateralBalance.Dec())
			assert.True(t, v.Debt.IsZero())
			assert.True(t, v.Healthy())
			assert.Equal(t, ray.Wads("1.6").Dec(), h.bank.Balance(weth, bank.Custody).Dec())
		})
	}
}

func TestPartialLiquidation(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)
	h.setPrice(1500)

	h.bank.Credit(stable, bob, ray.Wads("3000"))
	_, err := h.svc.Liquidate(h.ctx, bob, id, ray.Wads("3000"))
	require.Nil(t, err)

	// 3000 * 1.05 / 1500
	assert.Equal(t, ray.Wads("2.1").Dec(), h.bank.Balance(weth, bob).Dec())

	v := h.vault(t, id)
	assert.Equal(t, ray.Wads("9000").Dec(), v.Debt.Dec())
	assert.Equal(t, ray.Wads("7.9").Dec(), v.CollateralBalance.Dec())
	// 11850 / (9000 * 1.3) >= 1
	assert.True(t, v.Healthy())
}

func TestPartialLiquidationMustRestoreHealth(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)
	h.setPrice(1500)

	h.bank.Credit(stable, bob, ray.Wads("3000"))
	for _, amount := range []string{"1", "1000", "2000"} {
		_, err := h.svc.Liquidate(h.ctx, bob, id, ray.Wads(amount))
		assert.Equal(t, core.ErrLiquidationTooSmall, err, amount)
	}

	v := h.vault(t, id)
	assert.Equal(t, ray.Wads("10").Dec(), v.CollateralBalance.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
	assert.False(t, v.Healthy())
	assert.Equal(t, ray.Wads("3000").Dec(), h.bank.StableBalance(bob).Dec())

	// (15000 - 1.05 * 2500) / ((12000 - 2500) * 1.3) >= 1
	_, err := h.svc.Liquidate(h.ctx, bob, id, ray.Wads("2500"))
	require.Nil(t, err)
	assert.True(t, h.vault(t, id).Healthy())
}

func TestLiquidationExhaustsCollateral(t *testing.T) {
	t.Run("cap writes off bad debt", func(t *testing.T) {
		h := newHarness(t, defaultPolicy())
		id := h.openPosition(t)
		h.setPrice(1000)

		h.bank.Credit(stable, bob, ray.Wads("12000"))
		event, err := h.svc.Liquidate(h.ctx, bob, id, nil)
		require.Nil(t, err)

		// the 10 WETH cover 10000 / 1.05 of debt
		repaid, _ := ray.MulDiv(ray.Wads("12000"), ray.Wads("10"), ray.Wads("12.6"))
		assert.Equal(t, repaid.Dec(), event.Amount.Dec())
		assert.Equal(t, ray.Wads("10").Dec(), h.bank.Balance(weth, bob).Dec())

		v := h.vault(t, id)
		assert.True(t, v.CollateralBalance.IsZero())
		assert.True(t, v.Debt.IsZero())

		bad := new(uint256.Int).Sub(ray.Wads("12000"), repaid)
		assert.Equal(t, bad.Dec(), h.bank.BadDebt(weth).Dec())

		cfg, err := h.svc.Collateral(h.ctx, weth)
		require.Nil(t, err)
		assert.Equal(t, bad.Dec(), cfg.BadDebt.Dec())
		assert.True(t, cfg.TotalBaseDebt.IsZero())
	})

	t.Run("strict refuses", func(t *testing.T) {
		h := newHarness(t, setup{policy: liquidation.Policy{Strict: true, WriteOffBadDebt: true}})
		id := h.openPosition(t)
		h.setPrice(1000)

		h.bank.Credit(stable, bob, ray.Wads("12000"))
		_, err := h.svc.Liquidate(h.ctx, bob, id, nil)
		assert.Equal(t, core.ErrInsufficientCollateralForSeizure, err)

		// a smaller repay fits the balance but leaves the vault underwater
		_, err = h.svc.Liquidate(h.ctx, bob, id, ray.Wads("6000"))
		assert.Equal(t, core.ErrLiquidationTooSmall, err)
		assert.True(t, h.bank.Balance(weth, bob).IsZero())
		assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(bob).Dec())
	})
}

func TestIdleVaultNeverLiquidatable(t *testing.T) {
	h := newHarness(t, defaultPolicy())

	_, err := h.svc.DepositAndBorrow(h.ctx, alice, weth, ray.Wads("1"), nil)
	require.Nil(t, err)

	v, err := h.svc.VaultByOwner(h.ctx, alice, weth)
	require.Nil(t, err)
	assert.Nil(t, v.Health)

	h.setPrice(1)
	_, err = h.svc.Liquidate(h.ctx, bob, v.ID, nil)
	assert.Equal(t, core.ErrNotLiquidatable, err)

	health, err := h.svc.Health(h.ctx, v.ID)
	require.Nil(t, err)
	assert.Equal(t, ray.Max.Dec(), health.Dec())

	// without debt the whole balance can leave
	_, err = h.svc.Withdraw(h.ctx, alice, v.ID, ray.Wads("1"))
	require.Nil(t, err)
	_, err = h.svc.Withdraw(h.ctx, alice, v.ID, ray.Wads("1"))
	assert.Equal(t, core.ErrInsufficientCollateral, err)
}

func TestOriginationFeeRoundTrip(t *testing.T) {
	s := defaultPolicy()
	s.originationFee = "0.01"
	h := newHarness(t, s)
	id := h.openPosition(t)

	// 1% of 12000
	assert.Equal(t, ray.Wads("11880").Dec(), h.bank.StableBalance(alice).Dec())
	assert.Equal(t, ray.Wads("120").Dec(), h.bank.StableBalance("fees").Dec())
	require.Len(t, h.bank.Incomes(), 1)
	assert.Equal(t, core.IncomeOriginationFee, h.bank.Incomes()[0].Kind)

	// move the index off one
	h.advance(30 * 24 * time.Hour)
	h.bank.Credit(stable, alice, ray.Wads("1000"))

	before := h.vault(t, id).BaseDebt
	_, err := h.svc.Borrow(h.ctx, alice, id, ray.Wads("500"))
	require.Nil(t, err)
	_, err = h.svc.Repay(h.ctx, alice, id, ray.Wads("500"))
	require.Nil(t, err)

	assert.Equal(t, before.Dec(), h.vault(t, id).BaseDebt.Dec())
	// the fee is not refunded
	assert.Equal(t, ray.Wads("125").Dec(), h.bank.StableBalance("fees").Dec())
}

func TestDebtLimit(t *testing.T) {
	s := defaultPolicy()
	s.debtLimit = "15000"
	h := newHarness(t, s)
	id := h.openPosition(t)

	h.bank.Credit(weth, bob, ray.Wads("10"))
	_, err := h.svc.DepositAndBorrow(h.ctx, bob, weth, ray.Wads("10"), ray.Wads("3001"))
	assert.Equal(t, core.ErrDebtLimitExceeded, err)

	// the failed call left nothing behind
	_, err = h.svc.VaultByOwner(h.ctx, bob, weth)
	assert.Equal(t, core.ErrVaultNotFound, err)
	assert.Equal(t, ray.Wads("10").Dec(), h.bank.Balance(weth, bob).Dec())

	_, err = h.svc.DepositAndBorrow(h.ctx, bob, weth, ray.Wads("10"), ray.Wads("3000"))
	require.Nil(t, err)

	total, err := h.svc.CollateralDebt(h.ctx, weth)
	require.Nil(t, err)
	assert.Equal(t, ray.Wads("15000").Dec(), total.Dec())

	_, err = h.svc.Borrow(h.ctx, alice, id, ray.Wads("1"))
	assert.Equal(t, core.ErrDebtLimitExceeded, err)
}

func TestAuthorization(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)

	_, err := h.svc.Borrow(h.ctx, bob, id, ray.Wads("100"))
	assert.Equal(t, core.ErrAuthorization, err)
	_, err = h.svc.Withdraw(h.ctx, bob, id, ray.Wads("1"))
	assert.Equal(t, core.ErrAuthorization, err)

	require.Nil(t, h.access.Delegate(h.ctx, alice, bob))
	_, err = h.svc.Borrow(h.ctx, bob, id, ray.Wads("100"))
	require.Nil(t, err)
	// minted to the owner, not the delegate
	assert.Equal(t, ray.Wads("12100").Dec(), h.bank.StableBalance(alice).Dec())
	assert.True(t, h.bank.StableBalance(bob).IsZero())

	// anyone may deposit and repay
	h.bank.Credit(weth, bob, ray.Wads("1"))
	h.bank.Credit(stable, bob, ray.Wads("100"))
	_, err = h.svc.Deposit(h.ctx, bob, id, ray.Wads("1"))
	require.Nil(t, err)
	_, err = h.svc.Repay(h.ctx, bob, id, ray.Wads("100"))
	require.Nil(t, err)

	params, err := collateral.ParamsFromConfig(wethConfig(defaultPolicy()))
	require.Nil(t, err)
	_, err = h.svc.SetCollateral(h.ctx, alice, weth, params)
	assert.Equal(t, core.ErrAuthorization, err)

	_, err = h.svc.CollectIncome(h.ctx, alice, weth)
	assert.Equal(t, core.ErrAuthorization, err)
}

func TestInvalidInput(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)

	_, err := h.svc.Deposit(h.ctx, alice, id, ray.Zero())
	assert.Equal(t, core.ErrInvalidAmount, err)
	_, err = h.svc.Borrow(h.ctx, alice, id, nil)
	assert.Equal(t, core.ErrInvalidAmount, err)
	_, err = h.svc.Liquidate(h.ctx, bob, id, ray.Zero())
	assert.Equal(t, core.ErrInvalidAmount, err)

	_, err = h.svc.Deposit(h.ctx, alice, "missing", ray.Wads("1"))
	assert.Equal(t, core.ErrVaultNotFound, err)

	_, err = h.svc.Open(h.ctx, alice, "DOGE")
	assert.Equal(t, core.ErrUnknownCollateral, err)

	params, err := collateral.ParamsFromConfig(wethConfig(defaultPolicy()))
	require.Nil(t, err)
	params.MinCollateralRatio = ray.Rays("1.2")
	_, err = h.svc.SetCollateral(h.ctx, admin, weth, params)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))

	h.prices.Delete(weth)
	_, err = h.svc.Borrow(h.ctx, alice, id, ray.Wads("1"))
	assert.True(t, errors.Is(err, core.ErrPriceUnavailable))
	assert.True(t, core.ErrPriceUnavailable.Retryable())
}

func TestPause(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)

	assert.Equal(t, core.ErrAuthorization, h.svc.Pause(h.ctx, alice))
	require.Nil(t, h.svc.Pause(h.ctx, admin))

	_, err := h.svc.Deposit(h.ctx, alice, id, ray.Wads("1"))
	assert.Equal(t, core.ErrPaused, err)
	_, err = h.svc.Repay(h.ctx, alice, id, ray.Wads("1"))
	assert.Equal(t, core.ErrPaused, err)

	h.advance(time.Hour)
	_, err = h.svc.Refresh(h.ctx, bob, weth)
	require.Nil(t, err)

	require.Nil(t, h.svc.Unpause(h.ctx, admin))
	_, err = h.svc.Deposit(h.ctx, alice, id, ray.Wads("1"))
	require.Nil(t, err)
}

func TestRollbackOnTransferFailure(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)
	eventCount := len(h.events(t))

	t.Run("burn", func(t *testing.T) {
		h.bank.FailOn("burn", errors.New("frozen"))
		defer h.bank.FailOn("burn", nil)

		_, err := h.svc.Repay(h.ctx, alice, id, ray.Wads("1000"))
		assert.True(t, errors.Is(err, core.ErrTransferFailed))

		v := h.vault(t, id)
		assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
		assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(alice).Dec())
		assert.Len(t, h.events(t), eventCount)
	})

	t.Run("compensates earlier steps", func(t *testing.T) {
		h.setPrice(1500)
		h.bank.Credit(stable, bob, ray.Wads("12000"))
		h.bank.FailOn("out", errors.New("custody offline"))
		defer h.bank.FailOn("out", nil)

		_, err := h.svc.Liquidate(h.ctx, bob, id, nil)
		assert.True(t, errors.Is(err, core.ErrTransferFailed))

		// the burn that ran first was reversed
		assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(bob).Dec())
		assert.Equal(t, ray.Wads("24000").Dec(), h.bank.Supply(stable).Dec())

		v := h.vault(t, id)
		assert.Equal(t, ray.Wads("10").Dec(), v.CollateralBalance.Dec())
		assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
		assert.Len(t, h.events(t), eventCount)
	})
}

// failingCommit rolls back every transaction after fn succeeds, as a
// database that loses the connection at commit would
type failingCommit struct {
	core.Transactor
}

var errCommit = errors.New("connection reset at commit")

func (tx failingCommit) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Transactor.Tx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}

		return errCommit
	})
}

func TestCompensateOnCommitFailure(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	vaultID := h.openPosition(t)
	eventCount := len(h.events(t))
	h.svc.transactor = failingCommit{h.svc.transactor}

	_, err := h.svc.Borrow(h.ctx, alice, vaultID, ray.Wads("1000"))
	assert.Equal(t, errCommit, err)
	assert.Equal(t, ray.Wads("12000").Dec(), h.bank.StableBalance(alice).Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), h.bank.Supply(stable).Dec())

	_, err = h.svc.Withdraw(h.ctx, alice, vaultID, ray.Wads("1"))
	assert.Equal(t, errCommit, err)
	assert.Equal(t, ray.Wads("90").Dec(), h.bank.Balance(weth, alice).Dec())

	v := h.vault(t, vaultID)
	assert.Equal(t, ray.Wads("10").Dec(), v.CollateralBalance.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), v.Debt.Dec())
	assert.Len(t, h.events(t), eventCount)
}

func TestInterestAccrual(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	_, err := h.svc.DepositAndBorrow(h.ctx, alice, weth, ray.Wads("10"), ray.Wads("10000"))
	require.Nil(t, err)
	v, err := h.svc.VaultByOwner(h.ctx, alice, weth)
	require.Nil(t, err)

	h.advance(accrual.SecondsPerYear * time.Second)

	debt, err := h.svc.Debt(h.ctx, v.ID)
	require.Nil(t, err)
	within(t, ray.Wads("10200"), debt, ray.Wads("0.01"))

	total, err := h.svc.TotalDebt(h.ctx)
	require.Nil(t, err)
	assert.Equal(t, debt.Dec(), total.Dec())

	// views do not persist the index
	event, err := h.svc.Refresh(h.ctx, bob, weth)
	require.Nil(t, err)
	require.NotNil(t, event)
	assert.Equal(t, core.EventRefresh, event.Kind)

	// a second refresh at the same instant is a no-op
	event, err = h.svc.Refresh(h.ctx, bob, weth)
	require.Nil(t, err)
	assert.Nil(t, event)

	income, err := h.svc.CollectIncome(h.ctx, admin, weth)
	require.Nil(t, err)
	within(t, ray.Wads("200"), income, ray.Wads("0.01"))
	assert.Equal(t, income.Dec(), h.bank.StableBalance("fees").Dec())

	again, err := h.svc.CollectIncome(h.ctx, admin, weth)
	require.Nil(t, err)
	assert.True(t, again.IsZero())

	h.bank.Credit(stable, alice, ray.Wads("300"))
	_, err = h.svc.RepayAll(h.ctx, alice, v.ID)
	require.Nil(t, err)

	after := h.vault(t, v.ID)
	assert.True(t, after.Debt.IsZero())
	assert.True(t, after.BaseDebt.IsZero())

	cfg, err := h.svc.Collateral(h.ctx, weth)
	require.Nil(t, err)
	assert.True(t, cfg.TotalBaseDebt.IsZero())

	_, err = h.svc.RepayAll(h.ctx, alice, v.ID)
	assert.Equal(t, core.ErrInsufficientDebt, err)
}

func TestEvents(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	id := h.openPosition(t)

	events, err := h.svc.Events(h.ctx, id, 0, 10)
	require.Nil(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, core.EventDepositBorrow, e.Kind)
	assert.Equal(t, alice, e.Caller)
	assert.True(t, e.CollateralBefore.IsZero())
	assert.Equal(t, ray.Wads("10").Dec(), e.CollateralAfter.Dec())
	assert.Equal(t, ray.Wads("12000").Dec(), e.DebtAfter.Dec())
	require.NotNil(t, e.Health)

	// 20000 / (12000 * 1.3)
	want, _ := ray.MulDiv(ray.Wads("20000"), ray.RAY, ray.Wads("15600"))
	assert.Equal(t, want.Dec(), e.Health.Dec())
	assert.Contains(t, string(e.Data), `"deposit":"10000000000000000000"`)

	count, err := h.svc.VaultCount(h.ctx)
	require.Nil(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIdempotentReplay(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	vaultID := h.openPosition(t)
	ctx := id.WithTraceID(h.ctx, id.TraceIDFrom("alice:deposit-1"))

	first, err := h.svc.Deposit(ctx, alice, vaultID, ray.Wads("1"))
	require.Nil(t, err)

	second, err := h.svc.Deposit(ctx, alice, vaultID, ray.Wads("1"))
	require.Nil(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TraceID, second.TraceID)

	v := h.vault(t, vaultID)
	assert.Equal(t, ray.Wads("11").Dec(), v.CollateralBalance.Dec())
	assert.Equal(t, ray.Wads("89").Dec(), h.bank.Balance(weth, alice).Dec())

	_, err = h.svc.Withdraw(ctx, alice, vaultID, ray.Wads("1"))
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
	assert.Equal(t, ray.Wads("11").Dec(), h.vault(t, vaultID).CollateralBalance.Dec())

	t.Run("open", func(t *testing.T) {
		ctx := id.WithTraceID(h.ctx, id.TraceIDFrom("bob:open-1"))
		a, err := h.svc.Open(ctx, bob, weth)
		require.Nil(t, err)
		b, err := h.svc.Open(ctx, bob, weth)
		require.Nil(t, err)
		assert.Equal(t, a.ID, b.ID)
	})
}

// sum of vault debt tracks the aggregate through random operations
func TestAggregateConsistency(t *testing.T) {
	h := newHarness(t, defaultPolicy())
	users := []string{"u1", "u2", "u3", "u4", "u5"}
	for _, u := range users {
		h.bank.Credit(weth, u, ray.Wads("1000"))
		h.bank.Credit(stable, u, ray.Wads("1000000"))
	}

	r := rand.New(rand.NewSource(42))
	amount := func(max int64) *uint256.Int {
		return ray.Wads(decimal.NewFromInt(r.Int63n(max) + 1).String())
	}

	for i := 0; i < 300; i++ {
		u := users[r.Intn(len(users))]
		h.advance(time.Duration(r.Intn(86400*7)) * time.Second)

		var (
			err        error
			liquidated *core.Event
		)
		kind := r.Intn(5)
		switch kind {
		case 0:
			_, err = h.svc.DepositAndBorrow(h.ctx, u, weth, amount(10), nil)
		case 1:
			_, err = h.svc.DepositAndBorrow(h.ctx, u, weth, nil, amount(5000))
		case 2:
			if v, ferr := h.svc.VaultByOwner(h.ctx, u, weth); ferr == nil {
				_, err = h.svc.Repay(h.ctx, u, v.ID, amount(5000))
			}
		case 3:
			if v, ferr := h.svc.VaultByOwner(h.ctx, u, weth); ferr == nil {
				_, err = h.svc.Withdraw(h.ctx, u, v.ID, amount(5))
			}
		case 4:
			h.setPrice(1000 + r.Int63n(2000))
			if v, ferr := h.svc.VaultByOwner(h.ctx, u, weth); ferr == nil {
				liquidated, err = h.svc.Liquidate(h.ctx, users[0], v.ID, amount(5000))
			}
		}

		if err != nil {
			var code core.ErrorCode
			require.True(t, errors.As(err, &code), "unexpected error %v", err)
		}

		if err == nil && (kind == 1 || kind == 3) {
			v, verr := h.svc.VaultByOwner(h.ctx, u, weth)
			require.Nil(t, verr)

			if !v.Debt.IsZero() {
				require.NotNil(t, v.CollateralValue)
				ratio, rerr := ray.Ratio(v.CollateralValue, v.Debt)
				require.Nil(t, rerr)
				assert.False(t, ratio.Lt(ray.Rays("1.5")), "op %d left ratio %s", i, ratio.Dec())
			}
		}

		if err == nil && kind == 4 && liquidated != nil {
			v, verr := h.svc.Vault(h.ctx, liquidated.VaultID)
			require.Nil(t, verr)
			assert.True(t, v.Healthy() || v.CollateralBalance.IsZero(), "op %d left an unhealthy vault", i)
		}

		views, verr := h.svc.Vaults(h.ctx, weth)
		require.Nil(t, verr)

		sum := ray.Zero()
		for _, v := range views {
			sum.Add(sum, v.Debt)
		}

		aggregate, aerr := h.svc.CollateralDebt(h.ctx, weth)
		require.Nil(t, aerr)
		within(t, aggregate, sum, uint256.NewInt(uint64(len(views))))

		limit := ray.Wads("1000000")
		assert.False(t, aggregate.Gt(limit))
	}
}
