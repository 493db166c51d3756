// Package refresher keeps the rate index of every collateral type current,
// so idle types still accrue interest income between user operations.
package refresher

import (
	"context"
	"time"

	"cdp/core"
	"cdp/worker"

	"github.com/fox-one/pkg/logger"
)

// Caller recorded on refresh events issued by the worker
const Caller = "refresher"

// Vaults the part of the vault service the refresher drives
type Vaults interface {
	Collaterals(ctx context.Context) ([]*core.CollateralConfig, error)
	Refresh(ctx context.Context, caller, collateralType string) (*core.Event, error)
}

// Refresher refresh worker
type Refresher struct {
	vaults   Vaults
	interval time.Duration
}

// New new refresher
func New(vaults Vaults, interval time.Duration) *Refresher {
	return &Refresher{vaults: vaults, interval: interval}
}

// Run implements worker.Worker
func (w *Refresher) Run(ctx context.Context) error {
	return worker.Loop(ctx, "refresher", w.interval, func(ctx context.Context) error {
		_, err := w.RefreshAll(ctx)
		return err
	})
}

// RefreshAll refreshes every collateral type and returns how many indexes
// actually moved. One failing type does not stop the others.
func (w *Refresher) RefreshAll(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	cfgs, err := w.vaults.Collaterals(ctx)
	if err != nil {
		return 0, err
	}

	var refreshed int
	for _, cfg := range cfgs {
		event, err := w.vaults.Refresh(ctx, Caller, cfg.CollateralType)
		if err != nil {
			log.WithError(err).WithField("collateral", cfg.CollateralType).Errorln("refresh")
			continue
		}

		if event != nil {
			refreshed++
		}
	}

	return refreshed, nil
}
