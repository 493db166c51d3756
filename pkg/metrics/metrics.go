package metrics

import (
	"errors"
	"time"

	"cdp/core"
	"cdp/pkg/ray"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics vault engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	debt       *prometheus.GaugeVec
	index      *prometheus.GaugeVec
	badDebt    *prometheus.GaugeVec
	unhealthy  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg when not nil
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cdp",
			Name:      "operations_total",
			Help:      "Vault operations by kind and result code",
		}, []string{"kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cdp",
			Name:      "operation_duration_seconds",
			Help:      "Vault operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		debt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cdp",
			Name:      "collateral_debt",
			Help:      "Aggregate live debt per collateral type",
		}, []string{"collateral"}),
		index: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cdp",
			Name:      "collateral_rate_index",
			Help:      "Cumulative rate index per collateral type",
		}, []string{"collateral"}),
		badDebt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cdp",
			Name:      "collateral_bad_debt",
			Help:      "Debt written off per collateral type",
		}, []string{"collateral"}),
		unhealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cdp",
			Name:      "unhealthy_vaults",
			Help:      "Liquidatable vaults per collateral type at the last scan",
		}, []string{"collateral"}),
	}

	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.debt, m.index, m.badDebt, m.unhealthy)
	}

	return m
}

// ObserveOperation counts one operation and its latency
func (m *Metrics) ObserveOperation(kind core.EventKind, started time.Time, err error) {
	if m == nil {
		return
	}

	m.operations.WithLabelValues(string(kind), Result(err)).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
}

// SetCollateral exports the accrual state of cfg
func (m *Metrics) SetCollateral(cfg *core.CollateralConfig) {
	if m == nil {
		return
	}

	debt, err := ray.Mul(ray.Copy(cfg.TotalBaseDebt), cfg.CumulativeRateIndex)
	if err == nil {
		f, _ := ray.ToDecimal(debt, ray.WadDecimals).Float64()
		m.debt.WithLabelValues(cfg.CollateralType).Set(f)
	}

	idx, _ := ray.ToDecimal(cfg.CumulativeRateIndex, ray.RayDecimals).Float64()
	m.index.WithLabelValues(cfg.CollateralType).Set(idx)

	bad, _ := ray.ToDecimal(cfg.BadDebt, ray.WadDecimals).Float64()
	m.badDebt.WithLabelValues(cfg.CollateralType).Set(bad)
}

// SetUnhealthy exports the number of liquidatable vaults of collateralType
func (m *Metrics) SetUnhealthy(collateralType string, n int) {
	if m == nil {
		return
	}

	m.unhealthy.WithLabelValues(collateralType).Set(float64(n))
}

// Result label of err: "ok", the error code name, or "error"
func Result(err error) string {
	if err == nil {
		return "ok"
	}

	var code core.ErrorCode
	if errors.As(err, &code) {
		return code.String()
	}

	return "error"
}
