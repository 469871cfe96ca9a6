package uniswapv2

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// --- Metrics ---

// Metrics holds all the Prometheus metrics for the pool engine. A single
// Metrics value is shared by every pool registered against the same
// registerer; series are labeled by pool address.
type Metrics struct {
	operationDuration *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec
	reserves          *prometheus.GaugeVec
	totalShares       *prometheus.GaugeVec
}

// NewMetrics creates and registers the metrics for the pool engine.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "amm_operation_duration_seconds",
			Help:    "Time taken to execute a state-changing pool operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pool", "operation"}),
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amm_operations_total",
			Help: "Total number of pool operations, labeled by operation and result.",
		}, []string{"pool", "operation", "result"}),
		reserves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amm_reserve",
			Help: "Synchronized reserve of each pool asset.",
		}, []string{"pool", "asset"}),
		totalShares: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amm_total_shares",
			Help: "Outstanding ownership shares of each pool, locked shares included.",
		}, []string{"pool"}),
	}
	reg.MustRegister(m.operationDuration, m.operationsTotal, m.reserves, m.totalShares)
	return m
}

// observe records the outcome of one operation. A nil *Metrics is a no-op.
func (m *Metrics) observe(pool common.Address, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	poolLabel := pool.Hex()
	m.operationDuration.WithLabelValues(poolLabel, operation).Observe(time.Since(start).Seconds())
	m.operationsTotal.WithLabelValues(poolLabel, operation, resultLabel(err)).Inc()
}

func (m *Metrics) setState(pool, assetA, assetB common.Address, reserveA, reserveB, totalShares *uint256.Int) {
	if m == nil {
		return
	}
	poolLabel := pool.Hex()
	m.reserves.WithLabelValues(poolLabel, assetA.Hex()).Set(toFloat(reserveA))
	m.reserves.WithLabelValues(poolLabel, assetB.Hex()).Set(toFloat(reserveB))
	m.totalShares.WithLabelValues(poolLabel).Set(toFloat(totalShares))
}

// resultLabel maps an operation error onto a bounded label set.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrReentrant):
		return "reentrant"
	case errors.Is(err, ErrPartialRedemption):
		return "partial"
	case errors.Is(err, ErrInsufficientOutputAmount):
		return "slippage"
	case errors.Is(err, ErrInsufficientInput),
		errors.Is(err, ErrInvalidAsset),
		errors.Is(err, ErrInsufficientBalance):
		return "rejected"
	case errors.Is(err, ErrInsufficientLiquidity),
		errors.Is(err, ErrInsufficientLiquidityMinted),
		errors.Is(err, ErrInsufficientLiquidityBurned):
		return "insufficient_liquidity"
	default:
		return "error"
	}
}

func toFloat(x *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return f
}
