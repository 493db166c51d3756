package oracle

import (
	"context"
	"strings"
	"sync"
	"time"

	"cdp/core"

	"github.com/shopspring/decimal"
)

// StaticSource serves fixed prices, set from config or by the simulator.
// Collateral types are matched case-insensitively.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewStatic new static price source
func NewStatic(prices map[string]decimal.Decimal) *StaticSource {
	s := &StaticSource{prices: map[string]decimal.Decimal{}}
	for collateralType, price := range prices {
		s.Set(collateralType, price)
	}

	return s
}

// Set replaces the price of collateralType
func (s *StaticSource) Set(collateralType string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[strings.ToUpper(collateralType)] = price
}

// Delete drops the price of collateralType
func (s *StaticSource) Delete(collateralType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.prices, strings.ToUpper(collateralType))
}

// PullPriceTicker implements core.PriceSource. Static prices never go stale.
func (s *StaticSource) PullPriceTicker(ctx context.Context, collateralType string) (*core.PriceTicker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[strings.ToUpper(collateralType)]
	if !ok {
		return nil, core.ErrPriceUnavailable
	}

	return &core.PriceTicker{
		Provider:       "static",
		CollateralType: collateralType,
		Price:          price,
		Timestamp:      time.Now(),
	}, nil
}
