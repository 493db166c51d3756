package oracle

import (
	"context"
	"fmt"
	"time"

	"cdp/core"
	"cdp/pkg/ray"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Oracle turns a price source into a core.Valuation. Prices are cached for
// the configured ttl and rejected once older than maxAge.
type Oracle struct {
	source core.PriceSource
	cache  gcache.Cache
	sf     singleflight.Group
	maxAge time.Duration
	clock  func() time.Time
}

// New new oracle; ttl <= 0 disables caching, maxAge <= 0 disables the
// staleness check
func New(source core.PriceSource, ttl, maxAge time.Duration) *Oracle {
	o := &Oracle{
		source: source,
		maxAge: maxAge,
		clock:  time.Now,
	}

	if ttl > 0 {
		o.cache = gcache.New(256).LRU().Expiration(ttl).Build()
	}

	return o
}

// FromConfig builds the oracle described by cfg: a REST feed when an
// endpoint is set, the static price table otherwise
func FromConfig(cfg core.Oracle) *Oracle {
	var source core.PriceSource = NewStatic(cfg.Prices)
	if cfg.EndPoint != "" {
		source = NewREST(cfg.EndPoint)
	}

	return New(source, time.Duration(cfg.CacheTTL)*time.Second, time.Duration(cfg.MaxAge)*time.Second)
}

// WithClock overrides the clock used for the staleness check
func (o *Oracle) WithClock(clock func() time.Time) *Oracle {
	o.clock = clock
	return o
}

// Invalidate drops the cached price of collateralType
func (o *Oracle) Invalidate(collateralType string) {
	if o.cache != nil {
		o.cache.Remove(collateralType)
	}
}

// Ticker latest usable ticker of collateralType
func (o *Oracle) Ticker(ctx context.Context, collateralType string) (*core.PriceTicker, error) {
	if o.cache != nil {
		if v, err := o.cache.Get(collateralType); err == nil {
			if ticker, ok := v.(*core.PriceTicker); ok && o.fresh(ticker) {
				return ticker, nil
			}
		}
	}

	v, err, _ := o.sf.Do(collateralType, func() (interface{}, error) {
		ticker, err := o.source.PullPriceTicker(ctx, collateralType)
		if err != nil {
			return nil, err
		}

		if o.cache != nil {
			_ = o.cache.Set(collateralType, ticker)
		}
		return ticker, nil
	})
	if err != nil {
		return nil, err
	}

	ticker := v.(*core.PriceTicker)
	if !o.fresh(ticker) {
		logger.FromContext(ctx).WithField("collateral", collateralType).
			Warnf("stale price from %s at %s", ticker.Provider, ticker.Timestamp)
		return nil, fmt.Errorf("%s price is stale: %w", collateralType, core.ErrPriceUnavailable)
	}

	return ticker, nil
}

func (o *Oracle) fresh(ticker *core.PriceTicker) bool {
	return o.maxAge <= 0 || o.clock().Sub(ticker.Timestamp) <= o.maxAge
}

// Price WAD stable units per whole collateral unit
func (o *Oracle) Price(ctx context.Context, collateralType string) (*uint256.Int, error) {
	ticker, err := o.Ticker(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	price, err := ray.FromDecimal(ticker.Price, ray.WadDecimals)
	if err != nil || price.IsZero() {
		return nil, fmt.Errorf("%s price %s: %w", collateralType, ticker.Price, core.ErrPriceUnavailable)
	}

	return price, nil
}

// ConvertTo implements core.Valuation, rounding down
func (o *Oracle) ConvertTo(ctx context.Context, collateralType string, amount *uint256.Int) (*uint256.Int, error) {
	price, err := o.Price(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	return ray.MulDiv(amount, price, ray.WAD)
}

// ConvertFrom implements core.Valuation, rounding down
func (o *Oracle) ConvertFrom(ctx context.Context, collateralType string, value *uint256.Int) (*uint256.Int, error) {
	price, err := o.Price(ctx, collateralType)
	if err != nil {
		return nil, err
	}

	return ray.MulDiv(value, ray.WAD, price)
}

// Warm pulls the prices of every collateral type concurrently
func (o *Oracle) Warm(ctx context.Context, collateralTypes []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, collateralType := range collateralTypes {
		collateralType := collateralType
		g.Go(func() error {
			_, err := o.Ticker(ctx, collateralType)
			return err
		})
	}

	return g.Wait()
}
