// Package vault is the public operation surface of the engine. Every
// mutating call runs under one writer lock inside a store transaction:
// refresh the rate index, apply the ledger effects, persist the event, then
// issue the token interactions. Any failure rolls the whole call back.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cdp/core"
	"cdp/internal/accrual"
	"cdp/pkg/id"
	"cdp/pkg/metrics"
	"cdp/pkg/ray"
	"cdp/service/collateral"
	"cdp/service/ledger"
	"cdp/service/liquidation"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Service vault orchestrator
type Service struct {
	mu sync.Mutex

	transactor  core.Transactor
	system      core.SystemStore
	events      core.EventStore
	collaterals *collateral.Service
	ledger      *ledger.Ledger
	engine      *liquidation.Engine
	valuation   core.Valuation
	authorizer  core.Authorizer
	tokens      core.TokenService
	feeSink     core.FeeSink
	insurance   core.InsuranceReserve

	metrics *metrics.Metrics
	clock   func() time.Time
}

// New new vault service
func New(
	transactor core.Transactor,
	system core.SystemStore,
	events core.EventStore,
	collaterals *collateral.Service,
	l *ledger.Ledger,
	engine *liquidation.Engine,
	valuation core.Valuation,
	authorizer core.Authorizer,
	tokens core.TokenService,
	feeSink core.FeeSink,
	insurance core.InsuranceReserve,
) *Service {
	return &Service{
		transactor:  transactor,
		system:      system,
		events:      events,
		collaterals: collaterals,
		ledger:      l,
		engine:      engine,
		valuation:   valuation,
		authorizer:  authorizer,
		tokens:      tokens,
		feeSink:     feeSink,
		insurance:   insurance,
		clock:       time.Now,
	}
}

// WithClock overrides the time source
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithMetrics exports operation metrics to m
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// pauseExempt kinds allowed while paused
var pauseExempt = map[core.EventKind]bool{
	core.EventRefresh:       true,
	core.EventPause:         true,
	core.EventSetCollateral: true,
}

func (s *Service) run(ctx context.Context, kind core.EventKind, caller string, fn func(ctx context.Context, op *operation) error) (*core.Event, error) {
	started := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// a trace id supplied by the caller makes the call idempotent
	traceID, idempotent := id.TraceIDFromContext(ctx)
	if !idempotent {
		traceID = id.GenTraceID()
	}

	op := &operation{
		kind:    kind,
		caller:  caller,
		traceID: traceID,
		now:     s.clock(),
		extra:   core.NewEventExtra(),
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"op":     kind,
		"caller": caller,
		"trace":  op.traceID,
	})
	ctx = id.WithTraceID(logger.WithContext(ctx, log), op.traceID)

	var replayed *core.Event
	err := s.transactor.Tx(ctx, func(ctx context.Context) error {
		if idempotent {
			prior, err := s.events.FindTrace(ctx, op.traceID)
			if err != nil {
				return err
			}

			if prior != nil {
				if prior.Kind != kind {
					return fmt.Errorf("trace %s already used by %s: %w", op.traceID, prior.Kind, core.ErrInvalidParameter)
				}

				replayed = prior
				return nil
			}
		}

		if !pauseExempt[kind] {
			paused, err := s.system.Paused(ctx)
			if err != nil {
				return err
			}

			if paused {
				return core.ErrPaused
			}
		}

		if err := fn(ctx, op); err != nil {
			return err
		}

		if op.event != nil {
			op.event.SetExtraData(op.extra)
			if err := s.events.Create(ctx, op.event); err != nil {
				log.WithError(err).Errorln("events.Create")
				return err
			}
		}

		return op.execute(ctx)
	})

	s.metrics.ObserveOperation(kind, started, err)

	if err != nil {
		// every interaction ran but the tx did not commit
		if op.done > 0 {
			log.WithError(err).Warnln("commit failed, compensating interactions")
			op.undo(ctx)
		}

		entry := log.WithError(err)
		var code core.ErrorCode
		if errors.As(err, &code) {
			entry.Debugln("operation aborted")
		} else {
			entry.Warnln("operation aborted")
		}

		return nil, err
	}

	if replayed != nil {
		log.WithField("event", replayed.ID).Infoln("replayed")
		return replayed, nil
	}

	for _, fn := range op.notifications {
		fn(ctx)
	}

	if e := op.event; e != nil {
		log.WithField("vault", e.VaultID).Infof("%s %s committed", e.CollateralType, amountString(e.Amount))
	}

	return op.event, nil
}

// refresh loads cfg and advances its index to op.now; finish saves it
func (s *Service) refresh(ctx context.Context, op *operation, collateralType string) (*core.CollateralConfig, error) {
	cfg, err := s.collaterals.Get(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	if _, err := accrual.Refresh(cfg, op.now); err != nil {
		return nil, err
	}

	return cfg, nil
}

// load finds the vault and refreshes its collateral type
func (s *Service) load(ctx context.Context, op *operation, vaultID string) (*core.Vault, *core.CollateralConfig, error) {
	vault, err := s.ledger.Find(ctx, vaultID)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.refresh(ctx, op, vault.CollateralType)
	if err != nil {
		return nil, nil, err
	}

	return vault, cfg, nil
}

// begin records the event with the vault state before the operation
func (s *Service) begin(op *operation, vault *core.Vault, cfg *core.CollateralConfig, amount *uint256.Int) error {
	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return err
	}

	event := op.record(vault, cfg.CollateralType)
	event.Amount = ray.Copy(amount)
	event.Before(vault, debt)
	return nil
}

// finish saves cfg and completes the event with the state after the
// operation. The health is left empty when it cannot be priced.
func (s *Service) finish(ctx context.Context, op *operation, vault *core.Vault, cfg *core.CollateralConfig) error {
	if err := s.saveCollateral(ctx, cfg); err != nil {
		return err
	}

	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return err
	}

	op.event.After(vault, debt)
	op.extra.Put(core.EventKeyIndex, cfg.CumulativeRateIndex.Dec())

	if !debt.IsZero() {
		if health, err := s.engine.Health(ctx, vault, cfg); err == nil {
			op.event.Health = health
		}
	}

	return nil
}

func (s *Service) saveCollateral(ctx context.Context, cfg *core.CollateralConfig) error {
	if err := s.collaterals.Save(ctx, cfg); err != nil {
		return err
	}

	s.metrics.SetCollateral(cfg)
	return nil
}

// requireRatio fails with ErrMinRatioViolation when the vault carries debt
// and its collateral ratio is below the minimum
func (s *Service) requireRatio(ctx context.Context, vault *core.Vault, cfg *core.CollateralConfig) error {
	debt, err := ledger.LiveDebt(vault, cfg)
	if err != nil {
		return err
	}

	if debt.IsZero() {
		return nil
	}

	value, err := s.valuation.ConvertTo(ctx, vault.CollateralType, vault.CollateralBalance)
	if err != nil {
		return err
	}

	ratio, err := ray.Ratio(value, debt)
	if err != nil {
		return err
	}

	if ratio.Lt(cfg.MinCollateralRatio) {
		return core.ErrMinRatioViolation
	}

	return nil
}

func (s *Service) authorize(ctx context.Context, caller string, action core.Action, owner string) error {
	if !s.authorizer.Authorize(ctx, caller, action, owner) {
		return core.ErrAuthorization
	}

	return nil
}

func positive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return core.ErrInvalidAmount
	}

	return nil
}

func amountString(x *uint256.Int) string {
	if x == nil {
		return "0"
	}

	return ray.ToDecimal(x, ray.WadDecimals).String()
}
