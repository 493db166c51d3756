// Package monitor scans vaults for ones that became liquidatable.
package monitor

import (
	"context"
	"sync"
	"time"

	"cdp/core"
	"cdp/pkg/metrics"
	"cdp/pkg/ray"
	"cdp/service/vault"
	"cdp/worker"

	"github.com/fox-one/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Vaults the part of the vault service the monitor reads
type Vaults interface {
	Collaterals(ctx context.Context) ([]*core.CollateralConfig, error)
	Vaults(ctx context.Context, collateralType string) ([]*vault.View, error)
}

// Warmer preloads prices
type Warmer interface {
	Warm(ctx context.Context, collateralTypes []string) error
}

// Monitor monitor worker
type Monitor struct {
	vaults   Vaults
	prices   Warmer
	metrics  *metrics.Metrics
	interval time.Duration
}

// New new monitor; m may be nil
func New(vaults Vaults, prices Warmer, m *metrics.Metrics, interval time.Duration) *Monitor {
	return &Monitor{
		vaults:   vaults,
		prices:   prices,
		metrics:  m,
		interval: interval,
	}
}

// Run implements worker.Worker
func (w *Monitor) Run(ctx context.Context) error {
	return worker.Loop(ctx, "monitor", w.interval, func(ctx context.Context) error {
		_, err := w.Scan(ctx)
		return err
	})
}

// Scan returns the ids of unhealthy vaults per collateral type
func (w *Monitor) Scan(ctx context.Context) (map[string][]string, error) {
	log := logger.FromContext(ctx)

	cfgs, err := w.vaults.Collaterals(ctx)
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		types = append(types, cfg.CollateralType)
	}

	if err := w.prices.Warm(ctx, types); err != nil {
		log.WithError(err).Warnln("warm prices")
	}

	var (
		mu        sync.Mutex
		unhealthy = make(map[string][]string, len(types))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, collateralType := range types {
		collateralType := collateralType
		g.Go(func() error {
			views, err := w.vaults.Vaults(ctx, collateralType)
			if err != nil {
				log.WithError(err).WithField("collateral", collateralType).Warnln("list vaults")
				return nil
			}

			var ids []string
			for _, v := range views {
				if v.Healthy() {
					continue
				}

				ids = append(ids, v.ID)
				log.WithField("vault", v.ID).Warnf("%s vault liquidatable at health %s",
					collateralType, ray.ToDecimal(v.Health, ray.RayDecimals).StringFixed(4))
			}

			w.metrics.SetUnhealthy(collateralType, len(ids))

			mu.Lock()
			unhealthy[collateralType] = ids
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return unhealthy, nil
}
