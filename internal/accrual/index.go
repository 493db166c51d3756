package accrual

import (
	"time"

	"cdp/core"
	"cdp/pkg/ray"

	"github.com/holiman/uint256"
)

// Elapsed whole seconds between the last refresh and now; zero if the clock
// went backwards.
func Elapsed(cfg *core.CollateralConfig, now time.Time) uint64 {
	last, cur := cfg.LastRefresh.Unix(), now.Unix()
	if cur <= last {
		return 0
	}

	return uint64(cur - last)
}

// Refresh advances the cumulative rate index of cfg to now and returns the
// interest accrued on the aggregate debt since the last refresh. The income
// is also added to cfg.PendingIncome. Calling it twice with the same now is
// a no-op the second time.
func Refresh(cfg *core.CollateralConfig, now time.Time) (*uint256.Int, error) {
	elapsed := Elapsed(cfg, now)
	if elapsed == 0 {
		if cfg.LastRefresh.IsZero() {
			cfg.LastRefresh = time.Unix(now.Unix(), 0).UTC()
		}
		return ray.Zero(), nil
	}

	factor, err := Compound(cfg.BorrowRate, elapsed)
	if err != nil {
		return nil, err
	}

	oldIndex := ray.Copy(cfg.CumulativeRateIndex)
	newIndex, err := ray.Mul(oldIndex, factor)
	if err != nil {
		return nil, err
	}

	debtBefore, err := ray.Mul(ray.Copy(cfg.TotalBaseDebt), oldIndex)
	if err != nil {
		return nil, err
	}

	debtAfter, err := ray.Mul(ray.Copy(cfg.TotalBaseDebt), newIndex)
	if err != nil {
		return nil, err
	}

	income, err := ray.Sub(debtAfter, debtBefore)
	if err != nil {
		return nil, err
	}

	pending, err := ray.Add(ray.Copy(cfg.PendingIncome), income)
	if err != nil {
		return nil, err
	}

	cfg.CumulativeRateIndex = newIndex
	cfg.PendingIncome = pending
	cfg.LastRefresh = time.Unix(now.Unix(), 0).UTC()
	return income, nil
}
